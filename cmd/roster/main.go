package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/example/mowing-roster/internal/application"
	"github.com/example/mowing-roster/internal/auth"
	"github.com/example/mowing-roster/internal/config"
	httptransport "github.com/example/mowing-roster/internal/http"
	"github.com/example/mowing-roster/internal/logging"
	"github.com/example/mowing-roster/internal/notify"
	"github.com/example/mowing-roster/internal/persistence/sqlite"
	"github.com/example/mowing-roster/internal/seed"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, slog.LevelInfo).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Load already validated the level.
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(os.Stdout, level)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("roster API stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	roster, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := roster.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           roster.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("roster API listening", "addr", server.Addr, "tls", roster.tls, "timezone", cfg.Timezone)
	if roster.tls {
		err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// clock is the wall clock the services read.
var clock = time.Now

// app is the assembled roster API.
type app struct {
	handler http.Handler
	storage *sqlite.Storage
	tls     bool
}

func (a *app) Close() error {
	return a.storage.Close()
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	storage, err := sqlite.OpenWithConfig(sqlite.DefaultConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	fail := func(err error) (*app, error) {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
		return nil, err
	}

	if err := storage.Migrate(ctx); err != nil {
		return fail(fmt.Errorf("apply migrations: %w", err))
	}

	idGenerator := uuid.NewString
	now := clock

	userRepo := newUserRepositoryAdapter(storage)
	sessionRepo := newSessionRepositoryAdapter(storage)

	if cfg.Seed {
		plan, err := seedPlan(cfg.SeedFile)
		if err != nil {
			return fail(err)
		}
		if _, err := application.NewBootstrapper(userRepo, sessionRepo, idGenerator, now, logger).Bootstrap(ctx, plan); err != nil {
			return fail(fmt.Errorf("seed database: %w", err))
		}
	}

	adminHash, err := adminPasswordHash(cfg)
	if err != nil {
		return fail(err)
	}
	issuer, err := auth.NewIssuer([]byte(cfg.SessionSecret), cfg.SessionTTL)
	if err != nil {
		return fail(fmt.Errorf("create token issuer: %w", err))
	}
	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return fail(fmt.Errorf("configure email: %w", err))
	}

	var cache *application.CalendarCache
	if cfg.CalendarCacheTTL > 0 {
		cache = application.NewCalendarCache(cfg.CalendarCacheTTL, 0, now)
	}

	userService := application.NewUserServiceWithLogger(userRepo, idGenerator, now, logger).WithCalendarCache(cache)
	sessionService := application.NewSessionServiceWithLogger(sessionRepo, userRepo, notifier, idGenerator, now, logger).
		WithCalendarCache(cache).
		WithLocation(loc)
	authService := application.NewAuthServiceWithLogger(userRepo, issuer, adminHash, application.VerifyPassword, now, logger)

	tlsEnabled := tlsFilesPresent(cfg.TLSCert, cfg.TLSKey)

	routes := httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, tlsEnabled, logger),
		Users:          httptransport.NewUserHandler(userService, logger),
		Sessions:       httptransport.NewSessionHandler(sessionService, logger),
		Calendar:       httptransport.NewCalendarHandler(sessionService, logger),
		RequireSession: httptransport.RequireSession(authService, logger),
		Middleware:     []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	}
	if cfg.StaticDir != "" {
		routes.Static = httptransport.NewSPAHandler(cfg.StaticDir)
	}

	return &app{
		handler: httptransport.NewRouter(routes),
		storage: storage,
		tls:     tlsEnabled,
	}, nil
}

func seedPlan(path string) (seed.Plan, error) {
	if path == "" {
		return seed.Default(), nil
	}
	return seed.LoadFile(path)
}

func adminPasswordHash(cfg config.Config) (string, error) {
	if cfg.AdminPasswordHash != "" {
		return cfg.AdminPasswordHash, nil
	}
	hash, err := application.HashPassword(cfg.AdminPassword)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	return hash, nil
}

func newNotifier(cfg config.Config, logger *slog.Logger) (application.Notifier, error) {
	settings := notify.Settings{BaseURL: cfg.BaseURL, Location: cfg.Location}
	if !cfg.SMTPConfigured() {
		logger.Warn("email credentials are not set; notifications will only be logged")
		return notify.NewLogNotifier(settings, logger), nil
	}
	mailer, err := notify.NewMailer(notify.Config{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.EmailUser,
		Password:    cfg.EmailPassword,
		TestingMode: cfg.TestingMode,
		Settings:    settings,
	}, logger)
	if err != nil {
		return nil, err
	}
	return mailer, nil
}

// tlsFilesPresent reports whether both the certificate and key exist.
func tlsFilesPresent(cert, key string) bool {
	if cert == "" || key == "" {
		return false
	}
	for _, path := range []string{cert, key} {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}
