package resource

import (
	"context"
	"net/http"

	"github.com/utafrali/coursehub/internal/domain"
	"github.com/utafrali/coursehub/pkg/pagination"
	"github.com/utafrali/coursehub/pkg/validator"
)

// Notifications reads and acknowledges in-app notifications.
type Notifications struct {
	req Requester
}

// List returns one page of notifications; unreadOnly filters on is_read.
func (n *Notifications) List(ctx context.Context, unreadOnly bool, p pagination.Params) ([]domain.Notification, error) {
	q := pageQuery(p)
	if unreadOnly {
		q.Set("is_read", "false")
	}
	return list[domain.Notification](ctx, n.req, "notifications/", q)
}

func (n *Notifications) MarkRead(ctx context.Context, id int64) error {
	path, err := idPath("notifications/%d/read/", id)
	if err != nil {
		return err
	}
	return exec(ctx, n.req, http.MethodPost, path, nil)
}

func (n *Notifications) MarkAllRead(ctx context.Context) error {
	return exec(ctx, n.req, http.MethodPost, "notifications/read-all/", nil)
}

func (n *Notifications) UnreadCount(ctx context.Context) (int, error) {
	c, err := get[domain.UnreadCount](ctx, n.req, "notifications/unread-count/", nil)
	if err != nil {
		return 0, err
	}
	return c.Count, nil
}

// Webpush manages browser push subscriptions.
type Webpush struct {
	req Requester
}

func (w *Webpush) List(ctx context.Context) ([]domain.WebpushSubscription, error) {
	return list[domain.WebpushSubscription](ctx, w.req, "webpush/subscriptions/", nil)
}

func (w *Webpush) Get(ctx context.Context, id int64) (*domain.WebpushSubscription, error) {
	path, err := idPath("webpush/subscriptions/%d/", id)
	if err != nil {
		return nil, err
	}
	return get[domain.WebpushSubscription](ctx, w.req, path, nil)
}

func (w *Webpush) Subscribe(ctx context.Context, in domain.WebpushInput) (*domain.WebpushSubscription, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.WebpushSubscription](ctx, w.req, http.MethodPost, "webpush/subscriptions/", in)
}

func (w *Webpush) Update(ctx context.Context, id int64, in domain.WebpushInput) (*domain.WebpushSubscription, error) {
	path, err := idPath("webpush/subscriptions/%d/", id)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.WebpushSubscription](ctx, w.req, http.MethodPut, path, in)
}

func (w *Webpush) Unsubscribe(ctx context.Context, id int64) error {
	path, err := idPath("webpush/subscriptions/%d/", id)
	if err != nil {
		return err
	}
	return exec(ctx, w.req, http.MethodDelete, path, nil)
}
