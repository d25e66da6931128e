package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/worstcrm/config"
	"github.com/mohammad-safakhou/worstcrm/internal/objectstore"
	"github.com/mohammad-safakhou/worstcrm/internal/payload"
	"github.com/mohammad-safakhou/worstcrm/internal/runtime"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

// Deps are the shared dependencies the HTTP surface is built from.
type Deps struct {
	Store       *store.Store
	Sanitizer   store.PayloadSanitizer
	Objects     objectstore.Presigner // nil disables attachment URLs
	Revocations runtime.Revocations   // nil disables logout revocation

	Secret            []byte
	TokenTTL          time.Duration
	MaxFailedAttempts int
	AllowedOrigins    []string
	SecureCookie      bool
	MetricsPath       string        // empty disables /metrics
	RequestTimeout    time.Duration // zero leaves requests unbounded
	Debug             bool
}

// NewEcho wires every route onto a fresh echo instance.
func NewEcho(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = d.Debug
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metricsMiddleware)
	if d.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeout(d.RequestTimeout))
	}
	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = errorHandler(log.New(log.Writer(), "[HTTP] ", log.LstdFlags))
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// Credentials are allowed only for an explicit origin list.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: !slices.Contains(origins, "*"),
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	if d.MetricsPath != "" {
		e.GET(d.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	authMW := runtime.EchoAuthMiddleware(d.Secret, d.Revocations)
	writer := runtime.WriteScopes()
	admin := runtime.RequireScopes(runtime.ScopeAdmin)

	api := e.Group("/api")
	auth := &AuthHandler{
		Store:             d.Store,
		Secret:            d.Secret,
		TokenTTL:          d.TokenTTL,
		MaxFailedAttempts: d.MaxFailedAttempts,
		Revocations:       d.Revocations,
		SecureCookie:      d.SecureCookie,
		Logger:            log.New(log.Writer(), "[AUTH] ", log.LstdFlags),
	}
	auth.Register(api.Group("/auth"), authMW)
	auth.RegisterMe(api.Group("/me", authMW))

	(&AccountsHandler{Store: d.Store, Objects: d.Objects}).Register(api.Group("/accounts", authMW, writer))
	(&ProjectsHandler{Store: d.Store, Objects: d.Objects}).Register(api.Group("/projects", authMW, writer))
	(&TasksHandler{Store: d.Store, Objects: d.Objects}).Register(api.Group("/tasks", authMW, writer))
	(&NotesHandler{Store: d.Store, Objects: d.Objects}).Register(api.Group("/notes", authMW, writer))
	(&ArtifactsHandler{Store: d.Store, Sanitizer: d.Sanitizer}).Register(api.Group("/artifacts", authMW, writer))
	(&ArtifactSchemasHandler{Store: d.Store}).Register(api.Group("/artifact-schemas", authMW))
	(&StatusHandler{Store: d.Store}).Register(api.Group("/status", authMW))
	(&UsersHandler{Store: d.Store}).Register(api.Group("/users", authMW, admin))
	return e
}

// Run migrates the database, connects the optional backends and serves
// until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := log.New(log.Writer(), "[MAIN] ", log.LstdFlags)

	dsn, err := runtime.BuildPostgresDSN(cfg)
	if err != nil {
		return err
	}
	if err := Migrate(cfg.Server.MigrationsDir, dsn, "up", 0); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	pg := cfg.Storage.Postgres
	st, err := store.NewWithDSN(ctx, dsn, store.PoolOptions{
		MaxOpenConns:    pg.MaxOpenConns,
		MaxIdleConns:    pg.MaxIdleConns,
		ConnMaxLifetime: pg.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer func() { _ = st.Close() }()

	mode := payload.ModeCoerce
	if cfg.Artifacts.StrictPayloads {
		mode = payload.ModeStrict
	}
	deps := Deps{
		Store:             st,
		Sanitizer:         payload.NewSanitizer(st, mode),
		Secret:            []byte(cfg.Server.JWTSecret),
		TokenTTL:          cfg.Server.TokenTTL,
		MaxFailedAttempts: cfg.Server.MaxFailedAttempts,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		SecureCookie:      cfg.General.Environment == "prod",
		RequestTimeout:    cfg.General.DefaultTimeout,
		Debug:             cfg.General.Debug,
	}
	if cfg.Telemetry.Enabled {
		deps.MetricsPath = cfg.Telemetry.MetricsPath
	}

	if cfg.Storage.Redis.Enabled() {
		rdb, err := runtime.ConnectRedis(ctx, cfg.Storage.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		deps.Revocations = runtime.NewRedisRevocations(rdb)
	} else {
		logger.Printf("redis not configured; logout will not revoke tokens")
	}

	if cfg.Storage.S3.Enabled() {
		objects, err := objectstore.NewMinio(cfg.Storage.S3)
		if err != nil {
			return err
		}
		deps.Objects = objects
	} else {
		logger.Printf("s3 not configured; attachment URLs disabled")
	}

	e := NewEcho(deps)
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s (payload mode %s)", cfg.Server.Address, mode)
		errCh <- e.Start(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Printf("shutting down")
		return e.Shutdown(shutdownCtx)
	}
}
