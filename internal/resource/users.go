package resource

import (
	"context"
	"net/http"

	"github.com/utafrali/coursehub/internal/domain"
	"github.com/utafrali/coursehub/pkg/pagination"
	"github.com/utafrali/coursehub/pkg/validator"
)

// Users reads accounts.
type Users struct {
	req Requester
}

// List returns one page of users, optionally filtered by a search term.
func (u *Users) List(ctx context.Context, search string, p pagination.Params) ([]domain.User, error) {
	q := pageQuery(p)
	if search != "" {
		q.Set("search", search)
	}
	return list[domain.User](ctx, u.req, "users/", q)
}

func (u *Users) Get(ctx context.Context, id int64) (*domain.User, error) {
	path, err := idPath("users/%d/", id)
	if err != nil {
		return nil, err
	}
	return get[domain.User](ctx, u.req, path, nil)
}

// Profiles manages profiles, including the caller's own.
type Profiles struct {
	req Requester
}

func (p *Profiles) List(ctx context.Context) ([]domain.Profile, error) {
	return list[domain.Profile](ctx, p.req, "profiles/", nil)
}

func (p *Profiles) Get(ctx context.Context, id int64) (*domain.Profile, error) {
	path, err := idPath("profiles/%d/", id)
	if err != nil {
		return nil, err
	}
	return get[domain.Profile](ctx, p.req, path, nil)
}

func (p *Profiles) Create(ctx context.Context, in domain.ProfileInput) (*domain.Profile, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Profile](ctx, p.req, http.MethodPost, "profiles/", in)
}

// Update patches the given profile with the non-nil fields of in.
func (p *Profiles) Update(ctx context.Context, id int64, in domain.ProfileInput) (*domain.Profile, error) {
	path, err := idPath("profiles/%d/", id)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Profile](ctx, p.req, http.MethodPatch, path, in)
}

func (p *Profiles) Delete(ctx context.Context, id int64) error {
	path, err := idPath("profiles/%d/", id)
	if err != nil {
		return err
	}
	return exec(ctx, p.req, http.MethodDelete, path, nil)
}

// Mine returns the caller's profile.
func (p *Profiles) Mine(ctx context.Context) (*domain.Profile, error) {
	return get[domain.Profile](ctx, p.req, "profiles/me/", nil)
}

// UpdateMine patches the caller's profile.
func (p *Profiles) UpdateMine(ctx context.Context, in domain.ProfileInput) (*domain.Profile, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Profile](ctx, p.req, http.MethodPatch, "profiles/me/", in)
}
