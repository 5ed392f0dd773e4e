package check

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
)

// PostgresStore persists security checks in PostgreSQL. Consume is a single
// DELETE ... RETURNING, so concurrent consumption attempts on one code get
// exactly one winner from the database itself.
type PostgresStore struct {
	pool  *pgxpool.Pool
	ttl   time.Duration
	clock Clock
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgres builds a check store. A zero ttl disables expiry; a positive
// ttl is enforced at consume time against the row's created_at.
func NewPostgres(pool *pgxpool.Pool, ttl time.Duration, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{pool: pool, ttl: ttl, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *PostgresStore) Create(ctx context.Context, userID id.UserID, typ models.CheckType) (*models.Check, error) {
	code, err := secrets.Generate()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO security_checks (code, type, user_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	c := models.Check{Code: code, Type: typ, UserID: userID}
	if err := s.pool.QueryRow(ctx, query, code, string(typ), uuid.UUID(userID)).Scan(&c.CreatedAt); err != nil {
		return nil, fmt.Errorf("create check: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) Consume(ctx context.Context, code string, typ models.CheckType) (*models.Check, error) {
	query := `
		DELETE FROM security_checks
		WHERE code = $1 AND type = $2
		RETURNING code, type, user_id, created_at
	`
	var c models.Check
	var uid uuid.UUID
	var rawType string
	err := s.pool.QueryRow(ctx, query, code, string(typ)).Scan(&c.Code, &rawType, &uid, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("consume check: %w", err)
	}
	c.Type = models.CheckType(rawType)
	c.UserID = id.UserID(uid)

	if s.ttl > 0 && s.clock().Sub(c.CreatedAt) > s.ttl {
		return nil, sentinel.ErrExpired
	}
	return &c, nil
}
