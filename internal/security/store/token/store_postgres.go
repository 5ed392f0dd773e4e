package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
)

// PostgresStore persists session tokens in PostgreSQL, keyed by the opaque
// value presented in the Authorization header.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, userID id.UserID, device string) (*models.Token, error) {
	value, err := secrets.Generate()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO security_tokens (value, user_id, device)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	t := models.Token{Value: value, UserID: userID, Device: device}
	if err := s.pool.QueryRow(ctx, query, value, uuid.UUID(userID), device).Scan(&t.CreatedAt); err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) Find(ctx context.Context, value string) (*models.Token, error) {
	query := `SELECT value, user_id, device, created_at FROM security_tokens WHERE value = $1`
	var t models.Token
	var uid uuid.UUID
	err := s.pool.QueryRow(ctx, query, value).Scan(&t.Value, &uid, &t.Device, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	t.UserID = id.UserID(uid)
	return &t, nil
}

func (s *PostgresStore) Delete(ctx context.Context, value string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM security_tokens WHERE value = $1`, value)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
