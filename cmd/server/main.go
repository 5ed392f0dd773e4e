// Command server wires the gatekey HTTP service: stores, mailer, audit
// pipeline and session resolution strategy are all picked from configuration
// here, so the packages underneath stay free of environment concerns.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatekey/internal/notification"
	"gatekey/internal/platform/config"
	"gatekey/internal/platform/httpserver"
	"gatekey/internal/platform/logger"
	"gatekey/internal/platform/metrics"
	"gatekey/internal/platform/postgres"
	platformredis "gatekey/internal/platform/redis"
	"gatekey/internal/provider"
	"gatekey/internal/security/resolver"
	"gatekey/internal/security/service"
	"gatekey/internal/security/store"
	checkstore "gatekey/internal/security/store/check"
	clientstore "gatekey/internal/security/store/client"
	tokenstore "gatekey/internal/security/store/token"
	userstore "gatekey/internal/security/store/user"
	httptransport "gatekey/internal/transport/http"
	audit "gatekey/pkg/platform/audit"
	"gatekey/pkg/platform/audit/publisher"
	"gatekey/pkg/platform/audit/sink"
	auditmemory "gatekey/pkg/platform/audit/store/memory"
)

// userStore is what main needs from a user store: the service workflows plus
// the provider sync hook.
type userStore interface {
	service.UserStore
	provider.UserSyncer
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		users   userStore
		checks  service.CheckStore
		tokens  service.TokenStore
		clients service.ClientStore
	)

	if cfg.PostgresURL != "" {
		pool, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			fatal(log, "postgres connect failed", err)
		}
		defer pool.Close()
		if _, err := pool.Exec(ctx, store.Schema); err != nil {
			fatal(log, "schema apply failed", err)
		}
		users = userstore.NewPostgres(pool)
		clients = clientstore.NewPostgres(pool)
		checks = checkstore.NewPostgres(pool, cfg.CheckTTL)
		tokens = tokenstore.NewPostgres(pool)
	} else {
		log.Warn("no postgres configured, using in-memory stores")
		users = userstore.NewInMemory()
		clients = clientstore.NewInMemory()
		checks = checkstore.NewInMemory(cfg.CheckTTL)
		tokens = tokenstore.NewInMemory()
	}

	// Redis, when present, takes over the volatile stores so check expiry
	// rides on native TTLs and sessions survive restarts without SQL.
	if cfg.RedisURL != "" {
		rdb, err := platformredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			fatal(log, "redis connect failed", err)
		}
		defer rdb.Close()
		checks = checkstore.NewRedis(rdb, cfg.CheckTTL)
		tokens = tokenstore.NewRedis(rdb)
	}

	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := sink.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			fatal(log, "kafka connect failed", err)
		}
		defer kafkaSink.Close()
		auditStore = kafkaSink
	}
	auditPublisher := publisher.NewPublisher(auditStore, publisher.WithAsyncBuffer(256))
	defer auditPublisher.Close()

	mailer := notification.NewSMTPMailer(notification.SMTPConfig{
		Addr:     cfg.SMTP.Addr,
		From:     cfg.SMTP.From,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	}, log)

	securityService := service.NewService(users, checks, tokens, clients, mailer,
		cfg.AcceptedOrigins,
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(metrics.New()),
	)

	var strategy resolver.Strategy = resolver.NewLocal(securityService)
	if cfg.ProviderURL != "" {
		log.Info("delegating session resolution", slog.String("provider", cfg.ProviderURL))
		strategy = resolver.NewDelegated(provider.New(cfg.ProviderURL, cfg.ProviderTimeout, users, log,
			provider.WithAuditPublisher(auditPublisher)))
	}

	handler := httptransport.NewHandler(securityService, log)
	router := httptransport.NewRouter(handler, resolver.RequireSession(strategy, log))

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting gatekey", slog.String("addr", cfg.Addr))

	if err := httpserver.Run(ctx, srv, 10*time.Second); err != nil {
		fatal(log, "server error", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
