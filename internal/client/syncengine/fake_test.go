package syncengine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gokigennote/gokigen/internal/client/localstore"
	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/gokigennote/gokigen/internal/client/repositories/kv"
	"github.com/gokigennote/gokigen/internal/logging"
	"github.com/google/uuid"
)

var errOffline = errors.New("offline")

type fakeRemote struct {
	mu sync.Mutex

	docs     map[uuid.UUID]models.Entry
	pages    [][]models.Entry
	migrated []models.Entry

	saves     []uuid.UUID
	deletes   []uuid.UUID
	calls     []string
	loadCalls int

	saveErr      error
	failSaveOn   uuid.UUID
	deleteErr    error
	deleteAllErr error
	loadErr      error
	migrateErr   error

	// saveGate, when set, blocks SaveEntry until closed; saveStarted is
	// signalled on entry.
	saveGate    chan struct{}
	saveStarted chan struct{}
	loadGate    chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: map[uuid.UUID]models.Entry{}}
}

func (f *fakeRemote) SaveEntry(ctx context.Context, e models.Entry, _ string) error {
	f.mu.Lock()
	gate, started := f.saveGate, f.saveStarted
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, e.ID)
	f.calls = append(f.calls, "save "+e.OriginalText)
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.failSaveOn == e.ID {
		return errOffline
	}
	f.docs[e.ID] = e
	return nil
}

func (f *fakeRemote) LoadPage(_ context.Context, _ string, _ int, cursor string) ([]models.Entry, string, error) {
	f.mu.Lock()
	gate := f.loadGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if f.loadErr != nil {
		return nil, "", f.loadErr
	}
	idx := 0
	if cursor != "" {
		if _, err := fmt.Sscanf(cursor, "p%d", &idx); err != nil {
			return nil, "", err
		}
	}
	if idx >= len(f.pages) {
		return nil, "", nil
	}
	next := ""
	if idx+1 < len(f.pages) {
		next = fmt.Sprintf("p%d", idx+1)
	}
	return f.pages[idx], next, nil
}

func (f *fakeRemote) DeleteEntry(_ context.Context, id uuid.UUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	f.calls = append(f.calls, "delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeRemote) DeleteAll(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteAllErr != nil {
		return f.deleteAllErr
	}
	f.docs = map[uuid.UUID]models.Entry{}
	return nil
}

func (f *fakeRemote) BatchMigrate(_ context.Context, entries []models.Entry, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.migrateErr != nil {
		return f.migrateErr
	}
	f.migrated = append(f.migrated, entries...)
	for _, e := range entries {
		f.docs[e.ID] = e
	}
	return nil
}

func (f *fakeRemote) set(fn func(f *fakeRemote)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) doc(id uuid.UUID) (models.Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.docs[id]
	return e, ok
}

func (f *fakeRemote) savedIDs() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.saves...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	engine *Engine
	remote *fakeRemote
	local  *localstore.Store
	kv     kv.Store
	clock  *fakeClock
}

func newHarness(t *testing.T, pageSize int) *harness {
	t.Helper()
	store := kv.NewDiskvStore(filepath.Join(t.TempDir(), "kv"), 0)
	local := localstore.New(store, logging.Nop())
	remote := newFakeRemote()
	clock := &fakeClock{now: time.Date(2025, 11, 19, 12, 0, 0, 0, time.UTC)}
	e := New(local, remote, logging.Nop(), Options{PageSize: pageSize, Now: clock.Now})
	t.Cleanup(e.Unbind)
	return &harness{engine: e, remote: remote, local: local, kv: store, clock: clock}
}

var t0 = time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)

func mk(text string, day int, mood models.Mood) models.Entry {
	return models.NewEntry(t0.AddDate(0, 0, day), mood, text)
}
