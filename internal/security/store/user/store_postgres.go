package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatekey/internal/platform/postgres"
	"gatekey/internal/security/models"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
)

// PostgresStore persists users in PostgreSQL. Email uniqueness is enforced by
// the store's unique index, not application-level locking; duplicate signups
// racing each other surface as sentinel.ErrConflict.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `id, email, name, password, is_confirmed, is_admin, upstream_id, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var uid uuid.UUID
	err := row.Scan(&uid, &u.Email, &u.Name, &u.PasswordHash, &u.IsConfirmed, &u.IsAdmin, &u.UpstreamID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	u.ID = id.UserID(uid)
	return &u, nil
}

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO security_users (id, email, name, password, is_confirmed, is_admin, upstream_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		uuid.UUID(user.ID), user.Email, user.Name, user.PasswordHash,
		user.IsConfirmed, user.IsAdmin, user.UpstreamID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM security_users WHERE id = $1`
	u, err := scanUser(s.pool.QueryRow(ctx, query, uuid.UUID(userID)))
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, err
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM security_users WHERE lower(email) = lower($1)`
	u, err := scanUser(s.pool.QueryRow(ctx, query, email))
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, err
}

func (s *PostgresStore) Save(ctx context.Context, user *models.User) error {
	query := `
		UPDATE security_users
		SET email = $2, name = $3, password = $4, is_confirmed = $5, is_admin = $6,
		    upstream_id = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		uuid.UUID(user.ID), user.Email, user.Name, user.PasswordHash,
		user.IsConfirmed, user.IsAdmin, user.UpstreamID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// UpsertByUpstreamID synchronizes a local user from a provider profile in a
// single statement, so concurrent delegated validations for the same
// upstream id converge on one row.
func (s *PostgresStore) UpsertByUpstreamID(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO security_users (id, email, name, password, is_confirmed, is_admin, upstream_id)
		VALUES ($1, $2, $3, '', TRUE, FALSE, $4)
		ON CONFLICT (upstream_id) WHERE upstream_id <> '' DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			updated_at = now()
		RETURNING ` + userColumns + `
	`
	row := s.pool.QueryRow(ctx, query, uuid.UUID(user.ID), user.Email, user.Name, user.UpstreamID)
	synced, err := scanUser(row)
	if err != nil {
		return fmt.Errorf("upsert user by upstream id: %w", err)
	}
	*user = *synced
	return nil
}
