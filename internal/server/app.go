// Package server initializes and runs the backend: it opens PostgreSQL,
// applies migrations, wires the services and serves the HTTP API until the
// process receives a termination signal.
package server

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

	"golang.org/x/sync/errgroup"

	"github.com/ibalodis/fieldsignal/internal/logging"
	"github.com/ibalodis/fieldsignal/internal/server/config"
	"github.com/ibalodis/fieldsignal/internal/server/db"
	"github.com/ibalodis/fieldsignal/internal/server/httpapi"
	"github.com/ibalodis/fieldsignal/internal/server/services"
	"github.com/ibalodis/fieldsignal/internal/server/storage"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	dbm    *db.PostgresRepositoryManager
	router http.Handler
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	dbm, err := db.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	userService := services.NewUserService(dbm.Users(), cfg)
	reportService := services.NewReportService(dbm.Reports())
	mediaService := storage.NewMediaService(cfg)

	handler := httpapi.NewHandler(userService, reportService, mediaService, []byte(cfg.SecretKey), logger)

	return &App{
		config: cfg,
		logger: logger,
		dbm:    dbm,
		router: httpapi.NewRouter(handler),
	}, nil
}

// Run serves the HTTP API until ctx is cancelled or a termination signal
// arrives, then shuts down gracefully and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.router,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		app.logger.Info(ctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	if closeErr := app.dbm.Close(); closeErr != nil {
		app.logger.Error(ctx, "db close error", "error", closeErr)
	}
	return err
}
