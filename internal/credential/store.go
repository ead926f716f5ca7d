// Package credential owns the access/refresh token pair. It is the only
// place tokens are written or erased.
package credential

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/utafrali/coursehub/pkg/errors"
)

// ErrEmptyAccessToken is returned when SetTokens is called without an
// access token.
var ErrEmptyAccessToken = errors.New("access token is empty")

// Pair is the credential pair issued by login and refresh.
type Pair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// Store persists the credential pair.
//
// SetTokens makes both values visible together and replaces any prior pair;
// an empty refresh token leaves the refresh slot absent. ClearTokens is
// idempotent. The bool returned by the getters is false when the value is
// absent. Storage failures wrap apperrors.ErrPersistence.
type Store interface {
	SetTokens(ctx context.Context, access, refresh string) error
	AccessToken(ctx context.Context) (string, bool, error)
	RefreshToken(ctx context.Context) (string, bool, error)
	Tokens(ctx context.Context) (Pair, error)
	ClearTokens(ctx context.Context) error
	Ping(ctx context.Context) error
}

// MemoryStore keeps the pair in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	pair Pair
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SetTokens(_ context.Context, access, refresh string) error {
	if access == "" {
		return apperrors.InvalidInput(ErrEmptyAccessToken)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = Pair{AccessToken: access, RefreshToken: refresh}
	return nil
}

func (s *MemoryStore) AccessToken(context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.AccessToken, s.pair.AccessToken != "", nil
}

func (s *MemoryStore) RefreshToken(context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.RefreshToken, s.pair.RefreshToken != "", nil
}

// Tokens returns both values from a single read.
func (s *MemoryStore) Tokens(context.Context) (Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, nil
}

func (s *MemoryStore) ClearTokens(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = Pair{}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
