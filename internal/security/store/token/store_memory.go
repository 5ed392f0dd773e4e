package token

import (
	"context"
	"sync"
	"time"

	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
)

// InMemoryStore keeps session tokens in process memory, keyed by the opaque
// token value. Tokens have no expiry; they live until Delete removes them.
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]models.Token
	clock  func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		tokens: make(map[string]models.Token),
		clock:  time.Now,
	}
}

// Create mints a new opaque token for the user. The generated value doubles
// as the storage key, so uniqueness falls out of the 256-bit entropy.
func (s *InMemoryStore) Create(_ context.Context, userID id.UserID, device string) (*models.Token, error) {
	value, err := secrets.Generate()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := models.Token{
		Value:     value,
		UserID:    userID,
		Device:    device,
		CreatedAt: s.clock(),
	}
	s.tokens[value] = t
	return &t, nil
}

func (s *InMemoryStore) Find(_ context.Context, value string) (*models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tokens[value]; ok {
		return &t, nil
	}
	return nil, sentinel.ErrNotFound
}

// Delete revokes a token. Deleting an unknown value reports ErrNotFound so a
// second logout with the same bearer fails loudly.
func (s *InMemoryStore) Delete(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[value]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.tokens, value)
	return nil
}
