package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conveyor-data/conveyor-go/internal/platform/auditlog"
	"github.com/conveyor-data/conveyor-go/internal/platform/auth"
	"github.com/conveyor-data/conveyor-go/internal/platform/env"
	"github.com/conveyor-data/conveyor-go/internal/platform/httpserver"
	"github.com/conveyor-data/conveyor-go/internal/platform/objectstore"
	"github.com/conveyor-data/conveyor-go/internal/platform/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("CONVEYOR_REGISTRY_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("CONVEYOR_REGISTRY_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	storeClient, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store client init failed", "error", err)
		os.Exit(2)
	}
	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := objectstore.EnsureBuckets(startupCtx, storeClient, storeCfg); err != nil {
		cancel()
		logger.Error("object store unavailable", "error", err)
		os.Exit(1)
	}
	cancel()

	var authenticator auth.Authenticator
	switch mode := env.String("CONVEYOR_AUTH_MODE", "internal"); mode {
	case "internal":
		internalAuthSecret := env.String("CONVEYOR_INTERNAL_AUTH_SECRET", "")
		headersAuth, err := auth.NewInternalHeadersAuthenticator(internalAuthSecret)
		if err != nil {
			logger.Error("invalid internal auth config", "error", err)
			os.Exit(2)
		}
		authenticator = headersAuth
	case "dev":
		logger.Warn("dev auth mode enabled; all requests share one identity")
		authenticator = auth.DevAuthenticator{
			Subject: env.String("CONVEYOR_DEV_AUTH_SUBJECT", "dev@localhost"),
			Email:   env.String("CONVEYOR_DEV_AUTH_EMAIL", "dev@localhost"),
			Roles:   env.CSV("CONVEYOR_DEV_AUTH_ROLES", []string{auth.RoleAdmin}),
		}
	default:
		logger.Error("unknown auth mode", "mode", mode)
		os.Exit(2)
	}

	authorizer := auth.MethodRoleAuthorizer()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("registry"))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			"registry",
			httpserver.ReadinessCheck{
				Name: "postgres",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
			httpserver.ReadinessCheck{
				Name: "minio",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return objectstore.CheckBuckets(checkCtx, storeClient, storeCfg)
				},
			},
		),
	)

	api := newRegistryAPI(logger, db, storeClient, storeCfg)
	api.register(mux)

	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		Authorize:     authorizer,
		Audit: func(ctx context.Context, event auth.DenyEvent) error {
			auditCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
			defer cancel()
			return auditlog.InsertAuthDeny(auditCtx, db, "registry", event)
		},
		SkipPrefixes: []string{"/healthz", "/readyz"},
	}.Wrap(mux)

	cfg := httpserver.Config{
		Service:         "registry",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "registry", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
