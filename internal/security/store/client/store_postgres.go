package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatekey/internal/security/models"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
)

// PostgresStore reads service-client principals from PostgreSQL. Clients are
// provisioned out of band; this service never writes them.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	query := `SELECT id, secret_hash, user_id, name, created_at FROM security_clients WHERE id = $1`
	var c models.Client
	var cid, uid uuid.UUID
	err := s.pool.QueryRow(ctx, query, uuid.UUID(clientID)).Scan(&cid, &c.SecretHash, &uid, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	c.ID = id.ClientID(cid)
	c.UserID = id.UserID(uid)
	return &c, nil
}
