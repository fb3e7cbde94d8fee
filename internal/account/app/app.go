package app

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

	httpapi "github.com/aussiebroadwan/accountd/internal/account/http"
	"github.com/aussiebroadwan/accountd/internal/account/mail"
	"github.com/aussiebroadwan/accountd/internal/account/rpc"
	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/internal/account/store"
	"github.com/aussiebroadwan/accountd/internal/account/store/drivers/postgres"
	"github.com/aussiebroadwan/accountd/internal/account/store/drivers/sqlite"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
	"github.com/aussiebroadwan/accountd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the account service with all its dependencies.
type Application struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metricsx.Metrics

	// Core dependencies
	db     store.Store
	mailer mail.Sender

	// Services
	sessionService    *service.SessionService
	activationService *service.ActivationService
	accountService    *service.AccountService

	// Transports
	server     *http.Server
	router     *httpapi.Router
	grpcServer *rpc.Server
	grpcCancel context.CancelFunc
	grpcDone   chan error
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "accountd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metricsx.New(),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initMail()
	app.initServices()
	app.initHTTP()
	app.initGRPC()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("account service starting",
		"port", app.cfg.Port,
		"grpc_port", app.cfg.GRPCPort,
		"version", BuildVersion,
	)

	serverErrors := make(chan error, 2)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	if app.grpcServer != nil {
		ctx, cancel := context.WithCancel(context.Background())
		app.grpcCancel = cancel
		app.grpcDone = make(chan error, 1)
		go func() {
			err := app.grpcServer.Run(ctx, fmt.Sprintf(":%d", app.cfg.GRPCPort))
			app.grpcDone <- err
			if err != nil {
				serverErrors <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
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
	app.logger.Info("shutting down account service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.grpcCancel != nil {
		app.grpcCancel()
		select {
		case <-app.grpcDone:
		case <-ctx.Done():
			app.logger.Error("grpc server did not stop in time")
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("account service stopped")
	return nil
}

// initDatabase opens the configured store and applies migrations.
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "sqlite", "":
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	case "postgres":
		if app.cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
		db, err = postgres.NewStore(app.cfg.DatabaseURL)
	default:
		return fmt.Errorf("unknown database driver %q", app.cfg.DatabaseDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initMail picks the SMTP relay when one is configured, otherwise mails are
// written to the log.
func (app *Application) initMail() {
	if app.cfg.SMTPAddr == "" {
		app.mailer = mail.LogSender{}
		app.logger.Warn("SMTP_ADDR not set, activation emails will only be logged")
		return
	}

	app.mailer = &mail.SMTPSender{
		Addr:       app.cfg.SMTPAddr,
		Username:   app.cfg.SMTPUsername,
		Password:   app.cfg.SMTPPassword,
		From:       app.cfg.SMTPFrom,
		RequireTLS: app.cfg.SMTPRequireTLS,
		Timeout:    10 * time.Second,
	}
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		Store:   app.db,
		Metrics: app.metrics,
	}
	app.activationService = &service.ActivationService{
		Store:    app.db,
		Mail:     app.mailer,
		Metrics:  app.metrics,
		LinkBase: app.cfg.ActivationLinkBase,
	}
	app.accountService = &service.AccountService{
		Store:        app.db,
		Sessions:     app.sessionService,
		Activation:   app.activationService,
		MobileRegion: app.cfg.MobileRegion,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
	)

	router.AccountService = app.accountService
	router.SessionService = app.sessionService
	router.ActivationService = app.activationService
	router.Permissions = adminPermissions(app.cfg.AdminAccounts)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// initGRPC prepares the gRPC server unless GRPC_PORT is 0.
func (app *Application) initGRPC() {
	if app.cfg.GRPCPort <= 0 {
		app.logger.Info("gRPC server disabled")
		return
	}

	srv := rpc.NewServer(app.db, app.metrics, app.logger)
	srv.AccountService = app.accountService
	srv.SessionService = app.sessionService
	srv.ActivationService = app.activationService
	app.grpcServer = srv
}

func adminPermissions(ids []string) httpx.StaticPermissions {
	perms := httpx.StaticPermissions{}
	for _, id := range ids {
		perms[id] = []string{httpapi.PowerAccountAdmin}
	}
	return perms
}
