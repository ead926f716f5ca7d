package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/coursehub/internal/credential"
	apperrors "github.com/utafrali/coursehub/pkg/errors"
)

type fakeRefresher struct {
	calls  atomic.Int32
	gate   chan struct{}
	pair   credential.Pair
	err    error
	ctxErr atomic.Value
}

func (f *fakeRefresher) Refresh(ctx context.Context, _ string) (credential.Pair, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return credential.Pair{}, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		f.ctxErr.Store(err)
	}
	return f.pair, f.err
}

type failingStore struct {
	*credential.MemoryStore
	setErr error
}

func (s *failingStore) SetTokens(ctx context.Context, access, refresh string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.SetTokens(ctx, access, refresh)
}

// blockingStore holds SetTokens until gate is closed.
type blockingStore struct {
	*credential.MemoryStore
	entered chan struct{}
	gate    chan struct{}
}

func (s *blockingStore) SetTokens(ctx context.Context, access, refresh string) error {
	close(s.entered)
	<-s.gate
	return s.MemoryStore.SetTokens(ctx, access, refresh)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seededStore(t *testing.T) *credential.MemoryStore {
	t.Helper()
	s := credential.NewMemoryStore()
	require.NoError(t, s.SetTokens(context.Background(), "a0", "r0"))
	return s
}

func unauthorized(path string) error {
	return &apperrors.APIError{Status: http.StatusUnauthorized, Method: http.MethodPost, Path: path, Detail: "Token is invalid or expired"}
}

// refreshConcurrently starts n callers and waits until n-1 of them have
// joined the in-flight cycle.
func refreshConcurrently(t *testing.T, c *Coordinator, n int) (wait func() []error) {
	t.Helper()
	before := testutil.ToFloat64(refreshWaiters)

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Refresh(context.Background(), 0)
		}()
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(refreshWaiters)-before >= float64(n-1)
	}, 2*time.Second, 5*time.Millisecond)

	return func() []error {
		wg.Wait()
		return errs
	}
}

func TestCoordinator_ConcurrentCallersShareOneRefresh(t *testing.T) {
	store := seededStore(t)
	ref := &fakeRefresher{gate: make(chan struct{}), pair: credential.Pair{AccessToken: "a1", RefreshToken: "r1"}}
	c := NewCoordinator(store, ref, time.Second, quietLogger())

	wait := refreshConcurrently(t, c, 8)
	assert.Equal(t, StateRefreshInFlight, c.State())
	close(ref.gate)

	for _, err := range wait() {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), ref.calls.Load())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, uint64(1), c.Generation())

	pair, err := store.Tokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, credential.Pair{AccessToken: "a1", RefreshToken: "r1"}, pair)
}

func TestCoordinator_FailureIsSharedAndClearsTokens(t *testing.T) {
	store := seededStore(t)
	ref := &fakeRefresher{gate: make(chan struct{}), err: unauthorized(RefreshPath)}
	c := NewCoordinator(store, ref, time.Second, quietLogger())

	wait := refreshConcurrently(t, c, 5)
	close(ref.gate)
	errs := wait()

	first := errs[0]
	require.Error(t, first)
	for _, err := range errs {
		assert.Same(t, first, err)
		assert.True(t, errors.Is(err, apperrors.ErrSessionInvalid))

		var apiErr *apperrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, RefreshPath, apiErr.Path)
	}
	assert.Equal(t, int32(1), ref.calls.Load())
	assert.Equal(t, StateInvalid, c.State())

	pair, err := store.Tokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, credential.Pair{}, pair)
}

func TestCoordinator_InvalidFailsFastWithoutNetwork(t *testing.T) {
	ref := &fakeRefresher{err: unauthorized(RefreshPath)}
	c := NewCoordinator(seededStore(t), ref, time.Second, quietLogger())

	first := c.Refresh(context.Background(), 0)
	require.Error(t, first)

	second := c.Refresh(context.Background(), 0)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), ref.calls.Load())
}

func TestCoordinator_NoRefreshTokenSkipsNetwork(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.SetTokens(context.Background(), "a0", ""))
	ref := &fakeRefresher{}
	c := NewCoordinator(store, ref, time.Second, quietLogger())

	err := c.Refresh(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRefreshToken))
	assert.True(t, errors.Is(err, apperrors.ErrSessionInvalid))
	assert.Equal(t, int32(0), ref.calls.Load())
	assert.Equal(t, StateInvalid, c.State())

	_, ok, _ := store.AccessToken(context.Background())
	assert.False(t, ok)
}

func TestCoordinator_NetworkFailureInvalidates(t *testing.T) {
	store := seededStore(t)
	netErr := &apperrors.NetworkError{Method: http.MethodPost, Path: RefreshPath, Err: errors.New("connection refused")}
	ref := &fakeRefresher{err: netErr}
	c := NewCoordinator(store, ref, time.Second, quietLogger())

	err := c.Refresh(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.True(t, errors.Is(err, apperrors.ErrSessionInvalid))
	assert.Equal(t, StateInvalid, c.State())

	pair, _ := store.Tokens(context.Background())
	assert.Equal(t, credential.Pair{}, pair)
}

func TestCoordinator_TimeoutInvalidates(t *testing.T) {
	ref := &fakeRefresher{gate: make(chan struct{})}
	c := NewCoordinator(seededStore(t), ref, 30*time.Millisecond, quietLogger())

	before := testutil.ToFloat64(refreshTotal.WithLabelValues("network_error"))
	err := c.Refresh(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, StateInvalid, c.State())
	assert.Equal(t, before+1, testutil.ToFloat64(refreshTotal.WithLabelValues("network_error")))
}

func TestCoordinator_PersistenceFailureInvalidates(t *testing.T) {
	store := &failingStore{MemoryStore: seededStore(t)}
	store.setErr = apperrors.Persistence("set tokens", errors.New("disk full"))
	ref := &fakeRefresher{pair: credential.Pair{AccessToken: "a1", RefreshToken: "r1"}}
	c := NewCoordinator(store, ref, time.Second, quietLogger())

	err := c.Refresh(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPersistence))
	assert.Equal(t, StateInvalid, c.State())
}

func TestCoordinator_StaleGenerationSkipsRefresh(t *testing.T) {
	ref := &fakeRefresher{pair: credential.Pair{AccessToken: "a1"}}
	c := NewCoordinator(seededStore(t), ref, time.Second, quietLogger())

	require.NoError(t, c.Refresh(context.Background(), 0))
	require.Equal(t, uint64(1), c.Generation())

	// A 401 for a request sent before that refresh just retries.
	require.NoError(t, c.Refresh(context.Background(), 0))
	assert.Equal(t, int32(1), ref.calls.Load())
}

func TestCoordinator_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	store := seededStore(t)
	ref := &fakeRefresher{pair: credential.Pair{AccessToken: "a1"}}
	c := NewCoordinator(store, ref, time.Second, quietLogger())

	require.NoError(t, c.Refresh(context.Background(), 0))
	pair, err := store.Tokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, credential.Pair{AccessToken: "a1", RefreshToken: "r0"}, pair)
}

func TestCoordinator_WaiterCancellationLeavesCycleRunning(t *testing.T) {
	ref := &fakeRefresher{gate: make(chan struct{}), pair: credential.Pair{AccessToken: "a1"}}
	c := NewCoordinator(seededStore(t), ref, time.Second, quietLogger())

	triggerCtx, cancelTrigger := context.WithCancel(context.Background())
	triggerDone := make(chan error, 1)
	go func() { triggerDone <- c.Refresh(triggerCtx, 0) }()
	require.Eventually(t, func() bool { return ref.calls.Load() == 1 }, time.Second, time.Millisecond)

	waiterDone := make(chan error, 1)
	go func() { waiterDone <- c.Refresh(context.Background(), 0) }()

	cancelTrigger()
	assert.ErrorIs(t, <-triggerDone, context.Canceled)

	close(ref.gate)
	assert.NoError(t, <-waiterDone)
	assert.Nil(t, ref.ctxErr.Load())
	assert.Equal(t, StateIdle, c.State())
}

func TestCoordinator_EstablishRevivesInvalidSession(t *testing.T) {
	store := seededStore(t)
	ref := &fakeRefresher{err: unauthorized(RefreshPath)}
	c := NewCoordinator(store, ref, time.Second, quietLogger())

	require.Error(t, c.Refresh(context.Background(), 0))
	require.Equal(t, StateInvalid, c.State())

	require.NoError(t, c.Establish(context.Background(), credential.Pair{AccessToken: "a2", RefreshToken: "r2"}))
	assert.Equal(t, StateIdle, c.State())

	pair, _ := store.Tokens(context.Background())
	assert.Equal(t, credential.Pair{AccessToken: "a2", RefreshToken: "r2"}, pair)
}

func TestCoordinator_EstablishWaitsForInFlightCycle(t *testing.T) {
	store := seededStore(t)
	ref := &fakeRefresher{gate: make(chan struct{}), err: unauthorized(RefreshPath)}
	c := NewCoordinator(store, ref, time.Second, quietLogger())

	go func() { _ = c.Refresh(context.Background(), 0) }()
	require.Eventually(t, func() bool { return ref.calls.Load() == 1 }, time.Second, time.Millisecond)

	established := make(chan error, 1)
	go func() {
		established <- c.Establish(context.Background(), credential.Pair{AccessToken: "a2", RefreshToken: "r2"})
	}()

	select {
	case <-established:
		t.Fatal("Establish returned while a refresh was in flight")
	case <-time.After(30 * time.Millisecond):
	}

	close(ref.gate)
	require.NoError(t, <-established)

	// The failed cycle cleared its tokens before the login pair landed.
	pair, _ := store.Tokens(context.Background())
	assert.Equal(t, credential.Pair{AccessToken: "a2", RefreshToken: "r2"}, pair)
	assert.Equal(t, StateIdle, c.State())
}

func TestCoordinator_EstablishWritesOutsideLock(t *testing.T) {
	store := &blockingStore{MemoryStore: seededStore(t), entered: make(chan struct{}), gate: make(chan struct{})}
	ref := &fakeRefresher{}
	c := NewCoordinator(store, ref, time.Second, quietLogger())

	established := make(chan error, 1)
	go func() {
		established <- c.Establish(context.Background(), credential.Pair{AccessToken: "a2", RefreshToken: "r2"})
	}()
	<-store.entered

	// The store write is still blocked; readers must not be.
	read := make(chan struct{})
	go func() {
		_ = c.State()
		_ = c.Generation()
		close(read)
	}()
	select {
	case <-read:
	case <-time.After(time.Second):
		t.Fatal("State and Generation blocked on the store write")
	}
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, uint64(0), c.Generation())

	// A 401 arriving now joins the write instead of starting a refresh.
	waiters := testutil.ToFloat64(refreshWaiters)
	refreshed := make(chan error, 1)
	go func() { refreshed <- c.Refresh(context.Background(), 0) }()
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(refreshWaiters) > waiters
	}, time.Second, time.Millisecond)
	select {
	case <-refreshed:
		t.Fatal("Refresh returned before the login pair was stored")
	default:
	}

	close(store.gate)
	require.NoError(t, <-established)
	require.NoError(t, <-refreshed)

	assert.Equal(t, int32(0), ref.calls.Load())
	assert.Equal(t, uint64(1), c.Generation())
	pair, _ := store.Tokens(context.Background())
	assert.Equal(t, credential.Pair{AccessToken: "a2", RefreshToken: "r2"}, pair)
}

func TestCoordinator_Invalidate(t *testing.T) {
	store := seededStore(t)
	ref := &fakeRefresher{}
	c := NewCoordinator(store, ref, time.Second, quietLogger())

	require.NoError(t, c.Invalidate(context.Background(), nil))
	assert.Equal(t, StateInvalid, c.State())

	err := c.Refresh(context.Background(), 0)
	assert.True(t, errors.Is(err, ErrLoggedOut))
	assert.True(t, errors.Is(err, apperrors.ErrSessionInvalid))
	assert.Equal(t, int32(0), ref.calls.Load())

	pair, _ := store.Tokens(context.Background())
	assert.Equal(t, credential.Pair{}, pair)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "refresh_in_flight", StateRefreshInFlight.String())
	assert.Equal(t, "invalid", StateInvalid.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "success", outcomeOf(nil))
	assert.Equal(t, "no_refresh_token", outcomeOf(ErrNoRefreshToken))
	assert.Equal(t, "rejected", outcomeOf(unauthorized(RefreshPath)))
	assert.Equal(t, "network_error", outcomeOf(&apperrors.NetworkError{Err: errors.New("x")}))
	assert.Equal(t, "persistence_error", outcomeOf(apperrors.Persistence("get", errors.New("x"))))
	assert.Equal(t, "error", outcomeOf(ErrMalformedRefresh))
}
