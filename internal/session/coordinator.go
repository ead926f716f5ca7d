// Package session keeps the authenticated session alive: it serializes token
// refreshes behind a single coordinator and replays requests rejected with
// 401 exactly once.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/coursehub/internal/credential"
	apperrors "github.com/utafrali/coursehub/pkg/errors"
	"github.com/utafrali/coursehub/pkg/logger"
)

// DefaultRefreshTimeout bounds one refresh cycle.
const DefaultRefreshTimeout = 15 * time.Second

var (
	// ErrNoRefreshToken fails a cycle before any network call is made.
	ErrNoRefreshToken = errors.New("no refresh token stored")

	// ErrLoggedOut is the cause recorded by an explicit logout.
	ErrLoggedOut = errors.New("logged out")
)

// State is the coordinator's position in the refresh state machine.
type State int

const (
	StateIdle State = iota
	StateRefreshInFlight
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshInFlight:
		return "refresh_in_flight"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Refresher exchanges a refresh token for a new pair. An empty RefreshToken
// in the result means the server did not rotate it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (credential.Pair, error)
}

// RefreshError is the single outcome handed to every caller of a failed
// cycle. It matches apperrors.ErrSessionInvalid and unwraps to the cause.
type RefreshError struct {
	Cause error
}

func (e *RefreshError) Error() string {
	return "session invalid: " + e.Cause.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Cause
}

func (e *RefreshError) Is(target error) bool {
	return target == apperrors.ErrSessionInvalid
}

// cycle is one refresh attempt or one login/logout write. err is written
// before done is closed.
type cycle struct {
	done chan struct{}
	err  error
}

// Coordinator guarantees at most one refresh call in flight.
//
// Idle -> RefreshInFlight -> Idle on success; RefreshInFlight -> Invalid on
// any failure, where both tokens are cleared. Invalid is left only through
// Establish. Every caller that joins a cycle observes that cycle's outcome.
type Coordinator struct {
	store     credential.Store
	refresher Refresher
	timeout   time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	state   State
	gen     uint64
	current *cycle // set while a refresh cycle or a login/logout write runs
	invalid error
}

// NewCoordinator creates a coordinator in the Idle state. A non-positive
// timeout falls back to DefaultRefreshTimeout.
func NewCoordinator(store credential.Store, refresher Refresher, timeout time.Duration, log *slog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		store:     store,
		refresher: refresher,
		timeout:   timeout,
		logger:    logger.Component(log, "session"),
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation advances every time a new pair is installed, by refresh or by
// login. Callers read it before sending a request and hand it back to
// Refresh so a 401 that raced a completed refresh does not start another.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Refresh is called after a request sent at generation observed came back
// 401. A nil return means a fresh token is stored and the request may be
// replayed once. Any other return is final for the caller: either the cycle's
// *RefreshError or ctx.Err() if the caller stopped waiting.
func (c *Coordinator) Refresh(ctx context.Context, observed uint64) error {
	c.mu.Lock()
	if cy := c.current; cy != nil {
		c.mu.Unlock()
		refreshWaiters.Inc()
		return c.wait(ctx, cy)
	}
	if c.state == StateInvalid {
		err := c.invalid
		c.mu.Unlock()
		return err
	}

	if c.gen != observed {
		c.mu.Unlock()
		return nil
	}

	cy := &cycle{done: make(chan struct{})}
	c.current = cy
	c.state = StateRefreshInFlight
	c.mu.Unlock()

	// The cycle outlives the caller that started it; its siblings depend on
	// the outcome.
	go c.run(context.WithoutCancel(ctx), cy)
	return c.wait(ctx, cy)
}

func (c *Coordinator) wait(ctx context.Context, cy *cycle) error {
	select {
	case <-cy.done:
		return cy.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) run(ctx context.Context, cy *cycle) {
	start := time.Now()
	log := logger.WithContext(ctx, c.logger)

	err := c.refresh(ctx)
	if err != nil {
		clearCtx, cancel := context.WithTimeout(ctx, c.timeout)
		if clearErr := c.store.ClearTokens(clearCtx); clearErr != nil {
			log.Error("failed to clear tokens after refresh failure", slog.String("error", clearErr.Error()))
			err = errors.Join(err, clearErr)
		}
		cancel()
	}

	refreshTotal.WithLabelValues(outcomeOf(err)).Inc()

	c.mu.Lock()
	if err == nil {
		c.state = StateIdle
		c.gen++
	} else {
		cy.err = &RefreshError{Cause: err}
		c.state = StateInvalid
		c.invalid = cy.err
	}
	c.current = nil
	c.mu.Unlock()
	close(cy.done)

	if err != nil {
		log.Warn("session refresh failed, session invalidated",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return
	}
	log.Info("session refreshed", slog.Duration("duration", time.Since(start)))
}

func (c *Coordinator) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, ok, err := c.store.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoRefreshToken
	}

	pair, err := c.refresher.Refresh(ctx, token)
	if err != nil {
		return err
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = token
	}
	return c.store.SetTokens(ctx, pair.AccessToken, pair.RefreshToken)
}

// Establish installs a pair obtained by login and returns the coordinator to
// Idle. A cycle already in flight is allowed to finish first so it cannot
// overwrite or clear the new pair.
func (c *Coordinator) Establish(ctx context.Context, pair credential.Pair) error {
	return c.settle(ctx,
		func() error {
			return c.store.SetTokens(ctx, pair.AccessToken, pair.RefreshToken)
		},
		func(err error) error {
			if err != nil {
				if c.state == StateInvalid {
					return c.invalid
				}
				return nil
			}
			c.state = StateIdle
			c.invalid = nil
			c.gen++
			return nil
		},
	)
}

// Invalidate clears both tokens and moves to Invalid with cause. Later 401s
// fail fast with a *RefreshError wrapping cause.
func (c *Coordinator) Invalidate(ctx context.Context, cause error) error {
	if cause == nil {
		cause = ErrLoggedOut
	}
	return c.settle(ctx,
		func() error {
			return c.store.ClearTokens(ctx)
		},
		func(error) error {
			c.state = StateInvalid
			c.invalid = &RefreshError{Cause: cause}
			return c.invalid
		},
	)
}

// settle waits out any cycle or write already running, then runs write
// without holding the lock and applies publish under it. Refresh calls that
// arrive during write join it and receive publish's result.
func (c *Coordinator) settle(ctx context.Context, write func() error, publish func(error) error) error {
	c.mu.Lock()
	for c.current != nil {
		cy := c.current
		c.mu.Unlock()
		select {
		case <-cy.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
	}
	cy := &cycle{done: make(chan struct{})}
	c.current = cy
	c.mu.Unlock()

	err := write()

	c.mu.Lock()
	cy.err = publish(err)
	c.current = nil
	c.mu.Unlock()
	close(cy.done)
	return err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoRefreshToken):
		return "no_refresh_token"
	case errors.Is(err, apperrors.ErrPersistence):
		return "persistence_error"
	case apperrors.IsNetwork(err), errors.Is(err, context.DeadlineExceeded):
		return "network_error"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "rejected"
	default:
		return "error"
	}
}
