package check

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
)

const (
	// Redis key prefix for live security checks: check:{type}:{code}
	checkKeyPrefix = "check:"
)

// RedisStore is the Redis-backed check store, recommended for distributed
// deployments. Expiry is delegated to Redis key TTLs and consumption uses
// GETDEL, which is atomic on the server, so concurrent consumption attempts
// get exactly one winner. An expired code is indistinguishable from a
// consumed one here; both read as not found.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis builds a Redis check store. A zero ttl stores checks without
// expiry, matching the original behavior.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

type redisCheck struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func checkKey(typ models.CheckType, code string) string {
	return checkKeyPrefix + string(typ) + ":" + code
}

func (s *RedisStore) Create(ctx context.Context, userID id.UserID, typ models.CheckType) (*models.Check, error) {
	code, err := secrets.Generate()
	if err != nil {
		return nil, err
	}

	c := models.Check{Code: code, Type: typ, UserID: userID, CreatedAt: time.Now()}
	payload, err := json.Marshal(redisCheck{UserID: userID.String(), CreatedAt: c.CreatedAt})
	if err != nil {
		return nil, fmt.Errorf("marshal check: %w", err)
	}
	if err := s.client.Set(ctx, checkKey(typ, code), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("create check: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Consume(ctx context.Context, code string, typ models.CheckType) (*models.Check, error) {
	raw, err := s.client.GetDel(ctx, checkKey(typ, code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume check: %w", err)
	}

	var rc redisCheck
	if err := json.Unmarshal([]byte(raw), &rc); err != nil {
		return nil, fmt.Errorf("unmarshal check: %w", err)
	}
	userID, err := id.ParseUserID(rc.UserID)
	if err != nil {
		return nil, fmt.Errorf("corrupt check owner: %w", err)
	}
	return &models.Check{Code: code, Type: typ, UserID: userID, CreatedAt: rc.CreatedAt}, nil
}
