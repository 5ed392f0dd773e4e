package check

import (
	"context"
	"sync"
	"time"

	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
)

// Clock abstracts time.Now for TTL tests.
type Clock func() time.Time

// InMemoryStore keeps security checks in process memory. Consume holds the
// write lock across the lookup and the delete, so two concurrent attempts on
// the same code see exactly one winner.
type InMemoryStore struct {
	mu     sync.Mutex
	checks map[string]models.Check
	ttl    time.Duration
	clock  Clock
}

// Option configures an InMemoryStore.
type Option func(*InMemoryStore)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) Option {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemory builds a check store. A zero ttl disables expiry, matching the
// original behavior; a positive ttl is enforced at consume time.
func NewInMemory(ttl time.Duration, opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		checks: make(map[string]models.Check),
		ttl:    ttl,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create generates an unguessable code and persists a live check of the given
// type for the user. Older checks of the same type are left live; only
// consumption removes a check.
func (s *InMemoryStore) Create(_ context.Context, userID id.UserID, typ models.CheckType) (*models.Check, error) {
	code, err := secrets.Generate()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Check{
		Code:      code,
		Type:      typ,
		UserID:    userID,
		CreatedAt: s.clock(),
	}
	s.checks[code] = c
	return &c, nil
}

// Consume atomically removes and returns the live check matching code and
// type. Returns sentinel.ErrNotFound for unknown or already-consumed codes
// and sentinel.ErrExpired for codes past the TTL (which are removed as well).
func (s *InMemoryStore) Consume(_ context.Context, code string, typ models.CheckType) (*models.Check, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checks[code]
	if !ok || c.Type != typ {
		return nil, sentinel.ErrNotFound
	}
	delete(s.checks, code)

	if s.ttl > 0 && s.clock().Sub(c.CreatedAt) > s.ttl {
		return nil, sentinel.ErrExpired
	}
	return &c, nil
}
