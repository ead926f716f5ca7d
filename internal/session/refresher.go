package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/utafrali/coursehub/internal/credential"
	"github.com/utafrali/coursehub/pkg/httpclient"
)

// RefreshPath is the token refresh endpoint relative to the base URL.
const RefreshPath = "auth/token/refresh/"

// ErrMalformedRefresh is returned when a 2xx refresh response carries no
// access token.
var ErrMalformedRefresh = errors.New("refresh response has no access token")

// Transport sends one request. *httpclient.Client implements it.
type Transport interface {
	Do(ctx context.Context, req *httpclient.Request) (json.RawMessage, error)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// HTTPRefresher calls the refresh endpoint on the raw transport. It must
// not be given a session.Client: a 401 here ends the session instead of
// triggering another refresh.
type HTTPRefresher struct {
	transport Transport
	path      string
}

// NewHTTPRefresher creates a refresher posting to RefreshPath.
func NewHTTPRefresher(transport Transport) *HTTPRefresher {
	return &HTTPRefresher{transport: transport, path: RefreshPath}
}

// Refresh posts the refresh token without an Authorization header.
func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (credential.Pair, error) {
	body, err := r.transport.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		Path:   r.path,
		Body:   refreshRequest{Refresh: refreshToken},
		NoAuth: true,
	})
	if err != nil {
		return credential.Pair{}, err
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return credential.Pair{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if resp.Access == "" {
		return credential.Pair{}, ErrMalformedRefresh
	}
	return credential.Pair{AccessToken: resp.Access, RefreshToken: resp.Refresh}, nil
}
