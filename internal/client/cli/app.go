package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gokigennote/gokigen/internal/client/ai"
	"github.com/gokigennote/gokigen/internal/client/config"
	"github.com/gokigennote/gokigen/internal/client/journal"
	"github.com/gokigennote/gokigen/internal/client/localstore"
	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/gokigennote/gokigen/internal/client/netwatch"
	"github.com/gokigennote/gokigen/internal/client/observe"
	"github.com/gokigennote/gokigen/internal/client/quota"
	"github.com/gokigennote/gokigen/internal/client/remote"
	"github.com/gokigennote/gokigen/internal/client/repositories/kv"
	"github.com/gokigennote/gokigen/internal/client/services"
	"github.com/gokigennote/gokigen/internal/client/syncengine"
	"github.com/gokigennote/gokigen/internal/client/textgen"
	"github.com/gokigennote/gokigen/internal/client/trend"
	"github.com/gokigennote/gokigen/internal/filex"
	"github.com/gokigennote/gokigen/internal/logging"
	"github.com/google/uuid"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// Journal is the part of journal.Journal the commands drive.
type Journal interface {
	Messages() *observe.Value[journal.Message]
	Draft() journal.Draft
	SetDraft(text string, mood models.Mood)
	SetContext(rc models.ReformulationContext)
	Entries() []models.Entry
	GenerateEmpathy(ctx context.Context) (journal.Draft, error)
	Reformulate(ctx context.Context) (journal.Draft, error)
	Save(ctx context.Context) (models.Entry, error)
	Update(ctx context.Context, id uuid.UUID, text string, mood models.Mood) (models.Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
	Reorder(ctx context.Context, from, to int) error
	LoadMore(ctx context.Context) (bool, error)
	Sync(ctx context.Context) error
	Trend() trend.Snapshot
	RemainingQuota(ctx context.Context) string
	RefreshPlan(ctx context.Context) (quota.Tier, error)
	ExportJSON() ([]byte, error)
}

// Binder scopes the sync engine to a user.
type Binder interface {
	Bind(ctx context.Context, userID string)
	Unbind()
}

// Exporter produces a server-side export.
type Exporter interface {
	ExportEntries(ctx context.Context) (remote.Export, error)
}

type App struct {
	config      *config.Config
	log         logging.Logger
	authService services.AuthService
	binder      Binder
	journal     Journal
	exporter    Exporter
	watcher     *netwatch.Watcher
	closers     []func() error

	mu       sync.Mutex
	userID   string
	userName string
	online   func() bool

	reader *bufio.Reader
	out    io.Writer
	msgs   <-chan journal.Message
}

// NewApp builds the whole client from c.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	dataDir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, err
	}

	a := &App{config: c, log: log.With("module", "cli"), reader: bufio.NewReader(os.Stdin), out: os.Stdout}

	store, err := a.openStore(ctx, dataDir)
	if err != nil {
		return nil, err
	}

	apiClient, err := remote.NewGRPCClient(c.ServerAddr)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, apiClient.Close)

	loc := c.Location()
	local := localstore.New(store, log)
	engine := syncengine.New(local, apiClient, log, syncengine.Options{PageSize: c.PageSize})
	q := quota.NewManager(local, loc, c.Limits())
	budget := quota.NewDailyBudget(local, loc, c.NetworkBudgetPerDay)

	var gen textgen.Generator
	if c.GeminiAPIKey != "" {
		gen = textgen.NewGemini(c.GeminiEndpoint, c.GeminiModel, c.GeminiAPIKey, &http.Client{})
	}
	coord := ai.New(gen, q, budget, log, ai.Options{Timeout: c.AITimeout})
	j := journal.New(engine, coord, q, c.Entitlements(), log, journal.Options{Location: loc})

	a.authService = services.NewAuthService(apiClient, store, c.AuthTimeout)
	a.binder = engine
	a.journal = j
	a.exporter = apiClient
	a.watcher = netwatch.New(a.authService, a.onOnline, log)
	a.online = func() bool { return a.watcher.Online().Get() }

	msgs, cancel := j.Messages().Subscribe()
	<-msgs
	a.msgs = msgs
	a.closers = append(a.closers, func() error { cancel(); return nil })
	a.closers = append(a.closers, func() error { engine.Unbind(); return nil })

	if _, err := j.RefreshPlan(ctx); err != nil {
		a.log.Warn(ctx, "plan refresh failed", "err", err)
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context, dataDir string) (kv.Store, error) {
	switch a.config.KVBackend {
	case config.BackendDiskv:
		return kv.NewDiskvStore(filepath.Join(dataDir, "kv"), 1<<20), nil
	default:
		db, err := kv.OpenSQLite(ctx, filepath.Join(dataDir, "journal.db"))
		if err != nil {
			return nil, fmt.Errorf("error initializing database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return kv.NewSQLiteStore(db), nil
	}
}

// Run blocks in the REPL and releases everything on return.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID != ""
}

func (a *App) setUser(userID, userName string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userID, a.userName = userID, userName
}

func (a *App) mode() Mode {
	switch {
	case !a.isLoggedIn():
		return ModeDisabled
	case a.online != nil && a.online():
		return ModeOnline
	default:
		return ModeOffline
	}
}

// onOnline drains the outbox once the server is reachable again.
func (a *App) onOnline(ctx context.Context) {
	if !a.isLoggedIn() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := a.journal.Sync(ctx); err != nil {
		a.log.Warn(ctx, "sync after reconnect failed", "err", err)
	}
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// printMessage shows the journal's latest message, if any arrived.
func (a *App) printMessage() {
	if a.msgs == nil {
		return
	}
	select {
	case m, ok := <-a.msgs:
		if ok && m.Text != "" {
			a.println(m.Text)
		}
	default:
	}
}
