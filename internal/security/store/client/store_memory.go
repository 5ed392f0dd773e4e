package client

import (
	"context"
	"sync"

	"gatekey/internal/security/models"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
)

// InMemoryStore holds the service-client principals. Clients are provisioned
// out of band and read-only to this service, so the store only exposes
// lookup plus a Seed helper for wiring and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	clients map[id.ClientID]models.Client
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{clients: make(map[id.ClientID]models.Client)}
}

// Seed installs a client record. Not part of the store contract consumed by
// the workflow engine.
func (s *InMemoryStore) Seed(c models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

func (s *InMemoryStore) FindByID(_ context.Context, clientID id.ClientID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients[clientID]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}
