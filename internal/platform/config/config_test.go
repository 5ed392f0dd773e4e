package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AcceptedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.CheckTTL)
	assert.Empty(t, cfg.ProviderURL)
	assert.Empty(t, cfg.PostgresURL)
	assert.Equal(t, "gatekey.audit", cfg.AuditTopic)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GATEKEY_ADDR", ":9090")
	t.Setenv("GATEKEY_ACCEPTED_ORIGINS", "https://app.example.com, https://staging.example.com, https://app.example.com")
	t.Setenv("GATEKEY_CHECK_TTL", "30m")
	t.Setenv("GATEKEY_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.AcceptedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.CheckTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestFromEnvBadDurationFallsBack(t *testing.T) {
	t.Setenv("GATEKEY_CHECK_TTL", "soon")
	assert.Equal(t, 24*time.Hour, FromEnv().CheckTTL)
}
