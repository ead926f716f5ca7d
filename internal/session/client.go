package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/utafrali/coursehub/internal/credential"
	apperrors "github.com/utafrali/coursehub/pkg/errors"
	"github.com/utafrali/coursehub/pkg/httpclient"
	"github.com/utafrali/coursehub/pkg/logger"
)

// Client is the authenticated requester every resource client goes through.
type Client struct {
	transport Transport
	coord     *Coordinator
	logger    *slog.Logger
}

// NewClient wraps transport with 401 handling driven by coord.
func NewClient(transport Transport, coord *Coordinator, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		transport: transport,
		coord:     coord,
		logger:    logger.Component(log, "session"),
	}
}

// Do sends req. If it is rejected with 401 and does not opt out of auth, the
// coordinator obtains a new token and req is sent once more. The replay goes
// straight to the transport, so its own 401 is returned as is.
func (c *Client) Do(ctx context.Context, req *httpclient.Request) (json.RawMessage, error) {
	gen := c.coord.Generation()

	body, err := c.transport.Do(ctx, req)
	if err == nil || req.NoAuth || apperrors.StatusOf(err) != http.StatusUnauthorized {
		return body, err
	}

	if rerr := c.coord.Refresh(ctx, gen); rerr != nil {
		return nil, rerr
	}

	body, err = c.transport.Do(ctx, req)
	if err != nil {
		replayTotal.WithLabelValues("error").Inc()
		logger.WithContext(ctx, c.logger).Debug("replayed request failed",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Int("status", apperrors.StatusOf(err)),
		)
		return nil, err
	}
	replayTotal.WithLabelValues("success").Inc()
	return body, nil
}

// Login installs a freshly issued pair and revives an invalidated session.
func (c *Client) Login(ctx context.Context, pair credential.Pair) error {
	return c.coord.Establish(ctx, pair)
}

// Logout forgets both tokens locally.
func (c *Client) Logout(ctx context.Context) error {
	return c.coord.Invalidate(ctx, ErrLoggedOut)
}

// State exposes the coordinator state for diagnostics.
func (c *Client) State() State {
	return c.coord.State()
}
