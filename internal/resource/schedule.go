package resource

import (
	"context"
	"strconv"

	"github.com/utafrali/coursehub/internal/domain"
	"github.com/utafrali/coursehub/pkg/pagination"
	"github.com/utafrali/coursehub/pkg/validator"
)

// Schedule reads calendar events.
type Schedule struct {
	req Requester
}

// Events lists events in the optional date window.
func (s *Schedule) Events(ctx context.Context, f domain.EventFilter, p pagination.Params) ([]domain.CalendarEvent, error) {
	if err := validator.Validate(f); err != nil {
		return nil, err
	}
	q := pageQuery(p)
	if f.From != "" {
		q.Set("start_date", f.From)
	}
	if f.To != "" {
		q.Set("end_date", f.To)
	}
	if f.CourseID > 0 {
		q.Set("course", strconv.FormatInt(f.CourseID, 10))
	}
	return list[domain.CalendarEvent](ctx, s.req, "calendar/events/", q)
}

func (s *Schedule) Event(ctx context.Context, id int64) (*domain.CalendarEvent, error) {
	path, err := idPath("calendar/events/%d/", id)
	if err != nil {
		return nil, err
	}
	return get[domain.CalendarEvent](ctx, s.req, path, nil)
}

// Banners lists home screen banners.
type Banners struct {
	req Requester
}

func (b *Banners) List(ctx context.Context) ([]domain.Banner, error) {
	return list[domain.Banner](ctx, b.req, "banners/", nil)
}
