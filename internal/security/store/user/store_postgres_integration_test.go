//go:build integration

package user_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"gatekey/internal/security/models"
	"gatekey/internal/security/store/user"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
	"gatekey/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order.
	err := s.postgres.TruncateTables(ctx, "security_checks", "security_tokens", "security_clients", "security_users")
	s.Require().NoError(err)
}

func newTestUser(email string) *models.User {
	return &models.User{
		ID:           id.NewUserID(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$10$notarealhash",
	}
}

func (s *PostgresStoreSuite) TestCreateAndLookup() {
	ctx := context.Background()
	u := newTestUser("pg.lookup@example.com")
	s.Require().NoError(s.store.Create(ctx, u))
	s.False(u.CreatedAt.IsZero())

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, byID.Email)

	byEmail, err := s.store.FindByEmail(ctx, "PG.Lookup@Example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
}

// TestConcurrentDuplicateEmail verifies the unique index is the arbiter of
// signup races: many concurrent creates with one email yield one success and
// typed conflicts for the rest, never string-matched errors.
func (s *PostgresStoreSuite) TestConcurrentDuplicateEmail() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newTestUser("race@example.com"))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get a typed conflict")
}

func (s *PostgresStoreSuite) TestSavePersistsMutations() {
	ctx := context.Background()
	u := newTestUser("pg.save@example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	u.IsConfirmed = true
	u.PasswordHash = "$2a$10$replacedhash"
	s.Require().NoError(s.store.Save(ctx, u))

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.True(found.IsConfirmed)
	s.Equal("$2a$10$replacedhash", found.PasswordHash)
}

func (s *PostgresStoreSuite) TestUpsertByUpstreamID() {
	ctx := context.Background()

	first := &models.User{
		ID:         id.NewUserID(),
		Email:      "delegated@example.com",
		Name:       "Delegated",
		UpstreamID: "upstream-42",
	}
	s.Require().NoError(s.store.UpsertByUpstreamID(ctx, first))
	s.True(first.IsConfirmed, "delegated identities arrive provider-verified")

	second := &models.User{
		ID:         id.NewUserID(),
		Email:      "delegated@example.com",
		Name:       "Renamed",
		UpstreamID: "upstream-42",
	}
	s.Require().NoError(s.store.UpsertByUpstreamID(ctx, second))
	s.Equal(first.ID, second.ID, "upsert must converge on one local record")
	s.Equal("Renamed", second.Name)
}
