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

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	httpapi "github.com/clipfeedhq/clipfeed/internal/accounts/http"
	"github.com/clipfeedhq/clipfeed/internal/accounts/media"
	medminio "github.com/clipfeedhq/clipfeed/internal/accounts/media/minio"
	"github.com/clipfeedhq/clipfeed/internal/accounts/service"
	"github.com/clipfeedhq/clipfeed/internal/accounts/store"
	"github.com/clipfeedhq/clipfeed/internal/accounts/store/drivers/memory"
	"github.com/clipfeedhq/clipfeed/internal/accounts/store/drivers/mongodb"
	"github.com/clipfeedhq/clipfeed/pkg/jwtx"
	"github.com/clipfeedhq/clipfeed/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the accounts service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	media media.Uploader

	authService *service.AuthService
	userService *service.UserService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "accounts-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}
	if err := app.initMedia(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("accounts service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down accounts service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("accounts service stopped")
	return nil
}

func (app *Application) initStore(ctx context.Context) error {
	if app.cfg.StoreDriver == "memory" {
		app.db = memory.NewStore()
		app.logger.Warn("using in-memory store, data will not survive restarts")
		return nil
	}

	db, err := mongodb.NewStore(ctx, app.cfg.MongoURI, app.cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply store migrations: %w", err)
	}

	app.logger.Info("store migrations applied successfully")
	return nil
}

func (app *Application) initMedia(ctx context.Context) error {
	mc, err := miniogo.New(app.cfg.MinioEndpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(app.cfg.MinioAccessKey, app.cfg.MinioSecretKey, ""),
		Secure: app.cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize media client: %w", err)
	}

	uploader, err := medminio.NewClient(ctx, mc, app.cfg.MinioBucket, app.cfg.MediaBaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize media bucket: %w", err)
	}
	app.media = uploader

	return nil
}

func (app *Application) initServices() {
	keys := app.cfg.Keys()

	app.authService = &service.AuthService{
		Store:    app.db,
		Issuer:   &jwtx.Issuer{Keys: keys},
		Verifier: &jwtx.Verifier{Keys: keys},
	}
	app.userService = &service.UserService{
		Store:    app.db,
		Media:    app.media,
		HashCost: app.cfg.BcryptCost,
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.AuthService = app.authService
	router.UserService = app.userService
	router.AccessTTL = app.cfg.AccessTokenTTL
	router.RefreshTTL = app.cfg.RefreshTokenTTL
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
