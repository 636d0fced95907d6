// Package server assembles the journal service: database and migrations,
// the gRPC endpoint and the operational HTTP endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/gokigennote/gokigen/internal/logging"
	gs "github.com/gokigennote/gokigen/internal/server/grpc"
	"github.com/gokigennote/gokigen/internal/server/httpapi"
	"github.com/gokigennote/gokigen/internal/server/repositories/repomanager"
)

// Runner is a server that blocks until its context ends.
type Runner interface {
	Run(ctx context.Context) error
}

type App struct {
	logger  logging.Logger
	db      *sql.DB
	rm      repomanager.RepositoryManager
	runners []Runner
}

func NewApp(l logging.Logger, db *sql.DB, rm repomanager.RepositoryManager, g *gs.GRPCServer, h *httpapi.Server) *App {
	return &App{logger: l, db: db, rm: rm, runners: []Runner{g, h}}
}

// Run applies migrations and serves until ctx is cancelled or any server
// fails; a failure stops the others.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	if err := app.rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for _, r := range app.runners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				once.Do(func() { firstErr = err })
				app.logger.Error(ctx, "server stopped", "error", err)
				cancel()
			}
		}()
	}
	wg.Wait()

	app.logger.Info(context.Background(), "Stopped")
	return firstErr
}
