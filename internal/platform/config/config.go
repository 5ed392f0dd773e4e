// Package config reads the process configuration from environment variables
// so main stays lean. Every knob has a development default; production
// deployments override through the environment.
package config

import (
	"os"
	"strings"
	"time"

	platformstrings "gatekey/pkg/platform/strings"
)

// Config is the full runtime configuration of the gatekey server.
type Config struct {
	Addr string

	// AcceptedOrigins are the base URLs signup and forgot may embed in
	// outgoing mail links. Requests naming any other origin are rejected.
	AcceptedOrigins []string

	// CheckTTL bounds how long a confirm or recover link stays redeemable.
	// Zero disables expiry.
	CheckTTL time.Duration

	// ProviderURL enables delegated session resolution when non-empty;
	// otherwise sessions resolve against the local token store.
	ProviderURL     string
	ProviderTimeout time.Duration

	SMTP SMTP

	// PostgresURL selects the SQL-backed stores when non-empty; otherwise
	// the server runs on in-memory stores (development only).
	PostgresURL string

	// RedisURL, when set, moves the check and token stores to Redis with
	// native TTL enforcement.
	RedisURL string

	// KafkaBrokers, when set, streams audit events to AuditTopic in
	// addition to the in-process audit store.
	KafkaBrokers []string
	AuditTopic   string
}

// SMTP configures the outbound mailer.
type SMTP struct {
	Addr     string
	From     string
	Username string
	Password string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:            getenv("GATEKEY_ADDR", ":8080"),
		AcceptedOrigins: splitList(os.Getenv("GATEKEY_ACCEPTED_ORIGINS")),
		CheckTTL:        getduration("GATEKEY_CHECK_TTL", 24*time.Hour),
		ProviderURL:     os.Getenv("GATEKEY_PROVIDER_URL"),
		ProviderTimeout: getduration("GATEKEY_PROVIDER_TIMEOUT", 10*time.Second),
		SMTP: SMTP{
			Addr:     getenv("GATEKEY_SMTP_ADDR", "localhost:25"),
			From:     getenv("GATEKEY_SMTP_FROM", "no-reply@localhost"),
			Username: os.Getenv("GATEKEY_SMTP_USERNAME"),
			Password: os.Getenv("GATEKEY_SMTP_PASSWORD"),
		},
		PostgresURL:  os.Getenv("GATEKEY_POSTGRES_URL"),
		RedisURL:     os.Getenv("GATEKEY_REDIS_URL"),
		KafkaBrokers: splitList(os.Getenv("GATEKEY_KAFKA_BROKERS")),
		AuditTopic:   getenv("GATEKEY_AUDIT_TOPIC", "gatekey.audit"),
	}
	if len(cfg.AcceptedOrigins) == 0 {
		cfg.AcceptedOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	out := platformstrings.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
