package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shoptally/shoptally/internal/auth/audit"
	httpapi "github.com/shoptally/shoptally/internal/auth/http"
	"github.com/shoptally/shoptally/internal/auth/recaptcha"
	"github.com/shoptally/shoptally/internal/auth/service"
	"github.com/shoptally/shoptally/internal/auth/store"
	"github.com/shoptally/shoptally/internal/auth/store/drivers/sqlite"
	"github.com/shoptally/shoptally/pkg/cryptox"
	"github.com/shoptally/shoptally/pkg/jwtx"
	"github.com/shoptally/shoptally/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	signer *jwtx.HS256
	box    *cryptox.SecretBox

	// Services
	tokenService        *service.TokenService
	loginService        *service.LoginService
	userService         *service.UserService
	mfaService          *service.MFAService
	housekeepingService *service.HousekeepingService
	recorder            *audit.Recorder
	recaptchaVerifier   *recaptcha.Verifier

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, err := jwtx.NewHS256([]byte(cfg.JWTSecret), cfg.Issuer)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("initialize JWT signer: %w", err)
	}
	app.signer = signer

	box, err := cryptox.LoadSecretBox(cfg.EncryptionKeyFile)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("load encryption key: %w", err)
	}
	app.box = box

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.recorder.Start()
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	// Drain queued activity entries before the database goes away.
	app.recorder.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Signer:       app.signer,
		Issuer:       app.cfg.Issuer,
		SessionTTL:   app.cfg.SessionTTL,
		TempTokenTTL: app.cfg.TempTokenTTL,
	}

	app.loginService = &service.LoginService{
		Store:                  app.db,
		LockoutThreshold:       app.cfg.LockoutThreshold,
		LockoutDuration:        app.cfg.LockoutDuration,
		PasswordExpirationDays: app.cfg.PasswordExpirationDays,
	}

	app.userService = &service.UserService{
		Store:                app.db,
		PasswordHistoryLimit: app.cfg.PasswordHistoryLimit,
	}

	app.mfaService = &service.MFAService{
		Store:  app.db,
		Box:    app.box,
		Issuer: app.cfg.Issuer,
	}

	app.recaptchaVerifier = recaptcha.New(app.cfg.RecaptchaSecret)
	if app.recaptchaVerifier.Enabled() {
		app.logger.Info("recaptcha verification enabled")
	}

	app.recorder = audit.NewRecorder(app.db.ActivityLogs(), app.logger, audit.DefaultQueueSize)

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.db,
		httpapi.CookieConfig{
			Secure: app.cfg.Env == "prod",
			TTL:    time.Duration(app.cfg.CookieExpireDays) * 24 * time.Hour,
		},
		app.logger,
	)
	router.TokenService = app.tokenService
	router.LoginService = app.loginService
	router.UserService = app.userService
	router.MFAService = app.mfaService
	router.Recaptcha = app.recaptchaVerifier
	router.Recorder = app.recorder
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
