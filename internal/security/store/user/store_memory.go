package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"gatekey/internal/security/models"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
)

// InMemoryStore keeps users in process memory. It mirrors the uniqueness
// guarantees of the SQL store (email, upstream id) so service behavior is
// identical across backends.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[id.UserID]models.User
	byEmail  map[string]id.UserID
	upstream map[string]id.UserID
	clock    func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[id.UserID]models.User),
		byEmail:  make(map[string]id.UserID),
		upstream: make(map[string]id.UserID),
		clock:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create persists a new user. Returns sentinel.ErrConflict when the email is
// already registered, the same way the SQL unique index does.
func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}

	now := s.clock()
	user.CreatedAt = now
	user.UpdatedAt = now

	s.byID[user.ID] = *user
	s.byEmail[key] = user.ID
	if user.UpstreamID != "" {
		s.upstream[user.UpstreamID] = user.ID
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[userID]; ok {
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.byEmail[normalizeEmail(email)]; ok {
		u := s.byID[userID]
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}

// Save updates an existing user record in place.
func (s *InMemoryStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[user.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	// Keep the email index coherent if the address changed.
	if normalizeEmail(current.Email) != normalizeEmail(user.Email) {
		if _, taken := s.byEmail[normalizeEmail(user.Email)]; taken {
			return sentinel.ErrConflict
		}
		delete(s.byEmail, normalizeEmail(current.Email))
		s.byEmail[normalizeEmail(user.Email)] = user.ID
	}
	user.UpdatedAt = s.clock()
	s.byID[user.ID] = *user
	if user.UpstreamID != "" {
		s.upstream[user.UpstreamID] = user.ID
	}
	return nil
}

// UpsertByUpstreamID synchronizes a local record from a provider profile.
// Idempotent: repeated calls with the same upstream id update the same user.
func (s *InMemoryStore) UpsertByUpstreamID(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if existingID, ok := s.upstream[user.UpstreamID]; ok {
		current := s.byID[existingID]
		if normalizeEmail(current.Email) != normalizeEmail(user.Email) {
			delete(s.byEmail, normalizeEmail(current.Email))
			s.byEmail[normalizeEmail(user.Email)] = existingID
		}
		current.Email = user.Email
		current.Name = user.Name
		current.UpdatedAt = now
		s.byID[existingID] = current
		*user = current
		return nil
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	s.byID[user.ID] = *user
	s.byEmail[normalizeEmail(user.Email)] = user.ID
	s.upstream[user.UpstreamID] = user.ID
	return nil
}
