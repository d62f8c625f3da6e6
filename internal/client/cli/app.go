// Package cli implements the interactive field client: a small REPL over
// the report queue, session, and connectivity monitor.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ibalodis/fieldsignal/internal/client/auth"
	"github.com/ibalodis/fieldsignal/internal/client/config"
	"github.com/ibalodis/fieldsignal/internal/client/connectivity"
	"github.com/ibalodis/fieldsignal/internal/client/gateway"
	"github.com/ibalodis/fieldsignal/internal/client/queue"
	"github.com/ibalodis/fieldsignal/internal/client/store"
	"github.com/ibalodis/fieldsignal/internal/logging"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	session *auth.Service
	queue   *queue.Manager
	monitor *connectivity.Monitor
	reader  *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := store.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	repo := store.NewSQLiteRepository(db)
	metadata := store.NewSQLiteMetadataRepository(db)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	session := auth.NewService(c.ServerBaseURL, httpClient, metadata)
	gw := gateway.NewHTTPGateway(c.ServerBaseURL, httpClient, session)

	prober := connectivity.NewHTTPProber(c.ServerBaseURL+"/healthz", httpClient)
	monitor := connectivity.NewMonitor(prober, c.OnlineCheckInterval, log)

	manager := queue.NewManager(repo, gw, monitor, session, log)

	return &App{
		config:  c,
		log:     log,
		session: session,
		queue:   manager,
		monitor: monitor,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run loads the projection, starts the monitor and drain loops, and hands
// control to the REPL until the user exits.
func (a *App) Run(ctx context.Context) error {
	if err := a.queue.LoadPendingReports(ctx); err != nil {
		return fmt.Errorf("error loading queued reports: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.monitor.Run(ctx)
	go a.queue.Run(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.statusLine, scanner)
	return nil
}

// statusLine renders the REPL prompt status: user, mode, pending count.
func (a *App) statusLine() string {
	s := a.queue.Snapshot()

	mode := "offline"
	if s.Reachable {
		mode = "online"
	}
	if s.Syncing {
		mode += ", syncing"
	}

	user := a.session.UserName(context.Background())
	if user == "" {
		user = "not logged in"
	}

	return fmt.Sprintf("%s | %s | %d pending", user, mode, s.PendingCount)
}

func (a *App) isLoggedIn() bool {
	_, err := a.session.AccessToken(context.Background())
	return err == nil
}
