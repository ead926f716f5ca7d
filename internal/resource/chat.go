package resource

import (
	"context"
	"net/http"

	"github.com/utafrali/coursehub/internal/domain"
	"github.com/utafrali/coursehub/pkg/httpclient"
	"github.com/utafrali/coursehub/pkg/pagination"
	"github.com/utafrali/coursehub/pkg/validator"
)

// Chats covers chats, their messages and members.
type Chats struct {
	req Requester
}

func (c *Chats) List(ctx context.Context) ([]domain.Chat, error) {
	return list[domain.Chat](ctx, c.req, "chats/", nil)
}

func (c *Chats) Get(ctx context.Context, id int64) (*domain.Chat, error) {
	path, err := idPath("chats/%d/", id)
	if err != nil {
		return nil, err
	}
	return get[domain.Chat](ctx, c.req, path, nil)
}

func (c *Chats) Create(ctx context.Context, in domain.ChatInput) (*domain.Chat, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Chat](ctx, c.req, http.MethodPost, "chats/", in)
}

func (c *Chats) Update(ctx context.Context, id int64, in domain.ChatInput) (*domain.Chat, error) {
	path, err := idPath("chats/%d/", id)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Chat](ctx, c.req, http.MethodPatch, path, in)
}

func (c *Chats) Delete(ctx context.Context, id int64) error {
	path, err := idPath("chats/%d/", id)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodDelete, path, nil)
}

// Messages returns one page of a chat's history in backend order.
func (c *Chats) Messages(ctx context.Context, chatID int64, p pagination.Params) ([]domain.Message, error) {
	path, err := idPath("chats/%d/messages/", chatID)
	if err != nil {
		return nil, err
	}
	return list[domain.Message](ctx, c.req, path, pageQuery(p))
}

func (c *Chats) SendMessage(ctx context.Context, chatID int64, in domain.MessageInput) (*domain.Message, error) {
	path, err := idPath("chats/%d/messages/", chatID)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Message](ctx, c.req, http.MethodPost, path, in)
}

func (c *Chats) Members(ctx context.Context, chatID int64) ([]domain.ChatMember, error) {
	path, err := idPath("chats/%d/members/", chatID)
	if err != nil {
		return nil, err
	}
	return list[domain.ChatMember](ctx, c.req, path, nil)
}

func (c *Chats) AddMember(ctx context.Context, chatID, userID int64) (*domain.ChatMember, error) {
	path, err := idPath("chats/%d/members/", chatID)
	if err != nil {
		return nil, err
	}
	if err := validator.Var("user id", userID, "gt=0"); err != nil {
		return nil, err
	}
	return send[domain.ChatMember](ctx, c.req, http.MethodPost, path, userRef{User: userID})
}

func (c *Chats) RemoveMember(ctx context.Context, chatID, userID int64) error {
	path, err := idPath("chats/%d/members/%d/", chatID, userID)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodDelete, path, nil)
}

// MarkRead marks every message in the chat as read.
func (c *Chats) MarkRead(ctx context.Context, chatID int64) error {
	path, err := idPath("chats/%d/read/", chatID)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodPost, path, nil)
}

// Upload posts a file to the chat as multipart/form-data.
func (c *Chats) Upload(ctx context.Context, chatID int64, in domain.Upload) (*domain.Message, error) {
	path, err := idPath("chats/%d/upload/", chatID)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	part := &httpclient.FilePart{
		Field:       "file",
		FileName:    in.FileName,
		ContentType: in.ContentType,
		Content:     in.Content,
	}
	if in.Caption != "" {
		part.Fields = map[string]string{"text": in.Caption}
	}
	return send[domain.Message](ctx, c.req, http.MethodPost, path, part)
}
