// Package resource exposes one method per backend operation. Callers never
// build HTTP requests or touch credentials themselves.
package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/utafrali/coursehub/internal/credential"
	"github.com/utafrali/coursehub/pkg/httpclient"
	"github.com/utafrali/coursehub/pkg/pagination"
	"github.com/utafrali/coursehub/pkg/validator"
)

// Requester sends one request. session.Client is the production
// implementation; it handles 401 and token refresh.
type Requester interface {
	Do(ctx context.Context, req *httpclient.Request) (json.RawMessage, error)
}

// Session owns the token writes that follow login and logout.
type Session interface {
	Login(ctx context.Context, pair credential.Pair) error
	Logout(ctx context.Context) error
}

// TokenReader reads the stored refresh token for the logout call.
type TokenReader interface {
	RefreshToken(ctx context.Context) (string, bool, error)
}

// API bundles every resource client over one requester.
type API struct {
	Auth          *Auth
	Users         *Users
	Profiles      *Profiles
	Courses       *Courses
	Chats         *Chats
	Notifications *Notifications
	Webpush       *Webpush
	Banners       *Banners
	Schedule      *Schedule
}

// New wires all resource clients.
func New(req Requester, sess Session, tokens TokenReader) *API {
	return &API{
		Auth:          &Auth{req: req, session: sess, tokens: tokens},
		Users:         &Users{req: req},
		Profiles:      &Profiles{req: req},
		Courses:       &Courses{req: req},
		Chats:         &Chats{req: req},
		Notifications: &Notifications{req: req},
		Webpush:       &Webpush{req: req},
		Banners:       &Banners{req: req},
		Schedule:      &Schedule{req: req},
	}
}

// idPath formats an endpoint path after checking every id is positive.
func idPath(format string, ids ...int64) (string, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		if err := validator.Var("id", id, "gt=0"); err != nil {
			return "", err
		}
		args[i] = id
	}
	return fmt.Sprintf(format, args...), nil
}

func decodeOne[T any](path string, body json.RawMessage) (*T, error) {
	var v T
	if len(body) == 0 {
		return &v, nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return &v, nil
}

func get[T any](ctx context.Context, r Requester, path string, q url.Values) (*T, error) {
	body, err := r.Do(ctx, &httpclient.Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return nil, err
	}
	return decodeOne[T](path, body)
}

func list[T any](ctx context.Context, r Requester, path string, q url.Values) ([]T, error) {
	body, err := r.Do(ctx, &httpclient.Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return nil, err
	}
	items, err := pagination.Decode[T](body)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return items, nil
}

func send[T any](ctx context.Context, r Requester, method, path string, payload any) (*T, error) {
	body, err := r.Do(ctx, &httpclient.Request{Method: method, Path: path, Body: payload})
	if err != nil {
		return nil, err
	}
	return decodeOne[T](path, body)
}

func exec(ctx context.Context, r Requester, method, path string, payload any) error {
	_, err := r.Do(ctx, &httpclient.Request{Method: method, Path: path, Body: payload})
	return err
}

func pageQuery(p pagination.Params) url.Values {
	return p.Apply(url.Values{})
}

type userRef struct {
	User int64 `json:"user"`
}
