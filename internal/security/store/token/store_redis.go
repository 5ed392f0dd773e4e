package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	id "gatekey/pkg/domain"
	"gatekey/pkg/platform/sentinel"
)

var (
	findDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gatekey_token_lookup_duration_ms",
		Help:    "Latency of session token lookups in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for session tokens
	tokenKeyPrefix = "token:"
)

// RedisStore is the Redis-backed token store for distributed deployments
// where multiple instances share session state. Tokens are stored without
// TTL; logout is the only revocation path.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisToken struct {
	UserID    string    `json:"user_id"`
	Device    string    `json:"device,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *RedisStore) Create(ctx context.Context, userID id.UserID, device string) (*models.Token, error) {
	value, err := secrets.Generate()
	if err != nil {
		return nil, err
	}

	t := models.Token{Value: value, UserID: userID, Device: device, CreatedAt: time.Now()}
	payload, err := json.Marshal(redisToken{UserID: userID.String(), Device: device, CreatedAt: t.CreatedAt})
	if err != nil {
		return nil, fmt.Errorf("marshal token: %w", err)
	}
	if err := s.client.Set(ctx, tokenKeyPrefix+value, payload, 0).Err(); err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &t, nil
}

func (s *RedisStore) Find(ctx context.Context, value string) (*models.Token, error) {
	start := time.Now()
	defer func() {
		findDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := s.client.Get(ctx, tokenKeyPrefix+value).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}

	var rt redisToken
	if err := json.Unmarshal([]byte(raw), &rt); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	userID, err := id.ParseUserID(rt.UserID)
	if err != nil {
		return nil, fmt.Errorf("corrupt token owner: %w", err)
	}
	return &models.Token{Value: value, UserID: userID, Device: rt.Device, CreatedAt: rt.CreatedAt}, nil
}

func (s *RedisStore) Delete(ctx context.Context, value string) error {
	deleted, err := s.client.Del(ctx, tokenKeyPrefix+value).Result()
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if deleted == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
