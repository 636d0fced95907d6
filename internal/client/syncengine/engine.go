// Package syncengine keeps a user's journal consistent between the device
// and the remote store.
//
// Reads are local first: binding a user publishes the cached entries before
// any network call. Every mutation updates memory and the local store
// synchronously and is mirrored to the remote store in the background by a
// single worker per bound user, so remote mutations land in the order they
// were issued. Writes sit in an outbox until the remote store accepts them.
// Deleted ids are tombstoned until the remote store confirms the delete.
// FlushPending drains both, oldest write first, stopping at the first
// failure.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/gokigennote/gokigen/internal/client/observe"
	"github.com/gokigennote/gokigen/internal/logging"
	"github.com/google/uuid"
)

var (
	ErrNotBound      = errors.New("no user bound")
	ErrEntryNotFound = errors.New("entry not found")
)

const (
	DefaultPageSize = 30
	DefaultDebounce = 700 * time.Millisecond
)

// RemoteStore is the remote document store. A "" cursor means the start of
// the result set; a "" next cursor means there is nothing after this page.
type RemoteStore interface {
	SaveEntry(ctx context.Context, entry models.Entry, userID string) error
	LoadPage(ctx context.Context, userID string, limit int, cursor string) ([]models.Entry, string, error)
	DeleteEntry(ctx context.Context, id uuid.UUID, userID string) error
	DeleteAll(ctx context.Context, userID string) error
	BatchMigrate(ctx context.Context, entries []models.Entry, userID string) error
}

// LocalStore is the on-device persistence; localstore.Store implements it.
type LocalStore interface {
	LoadEntries(ctx context.Context, userID string) []models.Entry
	SaveEntries(ctx context.Context, entries []models.Entry, userID string)
	LoadPendingIDs(ctx context.Context, userID string) []uuid.UUID
	SavePendingIDs(ctx context.Context, ids []uuid.UUID, userID string)
	AddPendingID(ctx context.Context, id uuid.UUID, userID string)
	RemovePendingID(ctx context.Context, id uuid.UUID, userID string)
	LoadTombstones(ctx context.Context, userID string) []uuid.UUID
	AddTombstones(ctx context.Context, userID string, ids ...uuid.UUID)
	RemoveTombstone(ctx context.Context, id uuid.UUID, userID string)
	LoadLegacyEntries(ctx context.Context) []models.Entry
	ClearLegacyEntries(ctx context.Context)
}

type Options struct {
	PageSize int
	Debounce time.Duration
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Engine struct {
	local  LocalStore
	remote RemoteStore
	log    logging.Logger
	opts   Options

	entries *observe.Value[[]models.Entry]

	mu sync.Mutex
	// gen changes on every Bind/Unbind so late results of a previous
	// session are dropped.
	gen          uint64
	userID       string
	cur          []models.Entry
	cursor       string
	hasMore      bool
	fetching     bool
	flushing     bool
	lastLoadMore time.Time

	// queue holds remote mutations of the bound session; wake signals
	// the worker draining it.
	queue []func(ctx context.Context)
	wake  chan struct{}

	bgCtx  context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	worker sync.WaitGroup
}

func New(local LocalStore, remote RemoteStore, log logging.Logger, opts Options) *Engine {
	return &Engine{
		local:   local,
		remote:  remote,
		log:     log.With("module", "syncengine"),
		opts:    opts.withDefaults(),
		entries: observe.NewValue([]models.Entry{}),
		bgCtx:   context.Background(),
		cancel:  func() {},
	}
}

// Updates publishes the entry list after every change.
func (e *Engine) Updates() *observe.Value[[]models.Entry] { return e.entries }

// Entries returns a copy of the current list.
func (e *Engine) Entries() []models.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.cur)
}

func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

func (e *Engine) HasMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasMore
}

// Bind switches the engine to userID. Cached entries are published before
// Bind returns; legacy migration, the outbox drain and the first page
// fetch run in the background.
func (e *Engine) Bind(ctx context.Context, userID string) {
	e.Unbind()

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.userID = userID
	e.cursor = ""
	e.hasMore = true
	e.fetching = false
	e.flushing = false
	e.lastLoadMore = time.Time{}
	e.bgCtx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))
	e.wake = make(chan struct{}, 1)
	bg := e.bgCtx

	cached := e.local.LoadEntries(ctx, userID)
	legacy := e.local.LoadLegacyEntries(ctx)
	e.cur = Merge(cached, legacy, nil)
	if len(legacy) > 0 {
		e.local.SaveEntries(ctx, e.cur, userID)
		e.local.ClearLegacyEntries(ctx)
		e.enqueueLocked(func(ctx context.Context) { e.migrateLegacy(ctx, userID, legacy) })
	}
	e.publishLocked()
	e.worker.Add(1)
	go e.drain(bg, gen, e.wake)
	e.mu.Unlock()

	e.log.Info(ctx, "user bound", "user", userID, "cached", len(cached), "legacy", len(legacy))

	e.goBackground(func() {
		if err := e.FlushPending(bg); err != nil {
			e.log.Warn(bg, "initial flush stopped", "err", err)
		}
		if err := e.Refresh(bg); err != nil {
			e.log.Warn(bg, "initial refresh failed", "err", err)
		}
	})
}

// Unbind cancels background work for the current user and waits for it.
// Mutations still queued are dropped; their ids stay in the outbox or the
// tombstone list.
func (e *Engine) Unbind() {
	e.mu.Lock()
	e.gen++
	cancel := e.cancel
	dropped := len(e.queue)
	e.queue = nil
	e.userID = ""
	e.cur = nil
	e.cursor = ""
	e.hasMore = false
	e.publishLocked()
	e.mu.Unlock()

	cancel()
	for range dropped {
		e.wg.Done()
	}
	e.worker.Wait()
	e.wg.Wait()
}

// Wait blocks until all background mirroring has finished.
func (e *Engine) Wait() { e.wg.Wait() }

// enqueueLocked appends a remote mutation for the bound session.
func (e *Engine) enqueueLocked(op func(ctx context.Context)) {
	e.wg.Add(1)
	e.queue = append(e.queue, op)
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// drain runs queued mutations one at a time until ctx is cancelled.
func (e *Engine) drain(ctx context.Context, gen uint64, wake <-chan struct{}) {
	defer e.worker.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
		}
		for {
			e.mu.Lock()
			if gen != e.gen || len(e.queue) == 0 {
				e.mu.Unlock()
				break
			}
			op := e.queue[0]
			e.queue = e.queue[1:]
			e.mu.Unlock()

			op(ctx)
			e.wg.Done()
		}
	}
}

func (e *Engine) migrateLegacy(ctx context.Context, userID string, legacy []models.Entry) {
	err := e.remote.BatchMigrate(ctx, legacy, userID)
	if err == nil {
		e.log.Info(ctx, "legacy entries migrated", "count", len(legacy))
		return
	}
	e.log.Warn(ctx, "legacy migration failed, queueing", "count", len(legacy), "err", err)
	for _, le := range legacy {
		e.local.AddPendingID(ctx, le.ID, userID)
	}
}

// Refresh fetches the first page and merges it into the current list.
// The pagination cursor restarts from that page.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.userID == "" {
		e.mu.Unlock()
		return ErrNotBound
	}
	if e.fetching {
		e.mu.Unlock()
		return nil
	}
	e.fetching = true
	gen, userID := e.gen, e.userID
	e.mu.Unlock()

	page, next, err := e.remote.LoadPage(ctx, userID, e.opts.PageSize, "")
	e.applyPage(ctx, gen, page, next, err)
	if err != nil {
		return fmt.Errorf("load first page: %w", err)
	}
	return nil
}

// LoadMore fetches the next page. It reports false without calling the
// remote store while another fetch is running, after the last page, or
// when called within the debounce interval of the previous call. Every
// call, rejected or not, restarts the interval.
func (e *Engine) LoadMore(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if e.userID == "" {
		e.mu.Unlock()
		return false, ErrNotBound
	}
	now := e.opts.Now()
	debounced := !e.lastLoadMore.IsZero() && now.Sub(e.lastLoadMore) < e.opts.Debounce
	e.lastLoadMore = now
	if e.fetching || !e.hasMore || debounced {
		e.mu.Unlock()
		return false, nil
	}
	e.fetching = true
	gen, userID, cursor := e.gen, e.userID, e.cursor
	e.mu.Unlock()

	page, next, err := e.remote.LoadPage(ctx, userID, e.opts.PageSize, cursor)
	e.applyPage(ctx, gen, page, next, err)
	if err != nil {
		return false, fmt.Errorf("load page: %w", err)
	}
	return true, nil
}

func (e *Engine) applyPage(ctx context.Context, gen uint64, page []models.Entry, next string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		return
	}
	e.fetching = false
	if err != nil {
		return
	}

	skip := idSet(e.local.LoadTombstones(ctx, e.userID))
	e.cur = Merge(e.cur, page, skip)
	e.cursor = next
	e.hasMore = len(page) >= e.opts.PageSize && next != ""
	e.local.SaveEntries(ctx, e.cur, e.userID)
	e.publishLocked()
}

// Save inserts or replaces entry and mirrors it to the remote store. The id
// is queued in the outbox until the remote store accepts the write.
func (e *Engine) Save(ctx context.Context, entry models.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.userID == "" {
		e.mu.Unlock()
		return ErrNotBound
	}
	i := slices.IndexFunc(e.cur, func(x models.Entry) bool { return x.ID == entry.ID })
	if i >= 0 {
		e.cur[i] = entry
	} else {
		e.cur = append(e.cur, entry)
	}
	sortByDateDesc(e.cur)
	e.local.SaveEntries(ctx, e.cur, e.userID)
	e.local.AddPendingID(ctx, entry.ID, e.userID)
	e.publishLocked()
	userID := e.userID
	e.enqueueLocked(func(ctx context.Context) {
		if err := e.remote.SaveEntry(ctx, entry, userID); err != nil {
			e.log.Warn(ctx, "remote save failed, queued", "id", entry.ID, "err", err)
			// An earlier write of the same id may have cleared the outbox.
			e.local.AddPendingID(ctx, entry.ID, userID)
			return
		}
		e.local.RemovePendingID(ctx, entry.ID, userID)
	})
	e.mu.Unlock()
	return nil
}

// Delete removes the entry locally and asks the remote store to delete it.
// The id stays tombstoned until the remote store confirms, so neither a
// failed delete nor a page fetched concurrently can bring it back.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	if e.userID == "" {
		e.mu.Unlock()
		return ErrNotBound
	}
	i := slices.IndexFunc(e.cur, func(x models.Entry) bool { return x.ID == id })
	if i < 0 {
		e.mu.Unlock()
		return ErrEntryNotFound
	}
	e.cur = slices.Delete(e.cur, i, i+1)
	e.local.SaveEntries(ctx, e.cur, e.userID)
	e.local.RemovePendingID(ctx, id, e.userID)
	e.local.AddTombstones(ctx, e.userID, id)
	e.publishLocked()
	userID := e.userID
	e.enqueueLocked(func(ctx context.Context) {
		if err := e.remote.DeleteEntry(ctx, id, userID); err != nil {
			e.log.Warn(ctx, "remote delete failed, kept tombstone", "id", id, "err", err)
			return
		}
		e.local.RemoveTombstone(ctx, id, userID)
	})
	e.mu.Unlock()
	return nil
}

// DeleteAll clears the journal. Every id known locally is tombstoned until
// the remote store confirms.
func (e *Engine) DeleteAll(ctx context.Context) error {
	e.mu.Lock()
	if e.userID == "" {
		e.mu.Unlock()
		return ErrNotBound
	}
	ids := make([]uuid.UUID, 0, len(e.cur))
	for _, x := range e.cur {
		ids = append(ids, x.ID)
	}
	e.cur = []models.Entry{}
	e.cursor = ""
	e.hasMore = false
	e.local.SaveEntries(ctx, e.cur, e.userID)
	e.local.SavePendingIDs(ctx, nil, e.userID)
	e.local.AddTombstones(ctx, e.userID, ids...)
	e.publishLocked()
	userID := e.userID
	e.enqueueLocked(func(ctx context.Context) {
		if err := e.remote.DeleteAll(ctx, userID); err != nil {
			e.log.Warn(ctx, "remote delete-all failed, kept tombstones", "count", len(ids), "err", err)
			return
		}
		for _, id := range ids {
			e.local.RemoveTombstone(ctx, id, userID)
		}
	})
	e.mu.Unlock()
	return nil
}

// Reorder moves the entry at index from to index to. The order is local
// only; the next merge sorts by date again.
func (e *Engine) Reorder(ctx context.Context, from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.userID == "" {
		return ErrNotBound
	}
	if from < 0 || from >= len(e.cur) || to < 0 || to >= len(e.cur) {
		return fmt.Errorf("reorder %d -> %d: index out of range", from, to)
	}
	moved := e.cur[from]
	e.cur = slices.Delete(e.cur, from, from+1)
	e.cur = slices.Insert(e.cur, to, moved)
	e.local.SaveEntries(ctx, e.cur, e.userID)
	e.publishLocked()
	return nil
}

// FlushPending retries queued writes, oldest UpdatedAt first, then queued
// deletes. It stops at the first failure and returns it. The flush runs on
// the session's mutation queue behind any mirroring already issued. Only one
// flush runs at a time; a concurrent call returns nil immediately.
func (e *Engine) FlushPending(ctx context.Context) error {
	e.mu.Lock()
	if e.userID == "" {
		e.mu.Unlock()
		return ErrNotBound
	}
	if e.flushing {
		e.mu.Unlock()
		return nil
	}
	e.flushing = true
	gen, bg := e.gen, e.bgCtx
	res := make(chan error, 1)
	e.enqueueLocked(func(qctx context.Context) {
		fctx, stop := context.WithCancel(qctx)
		defer stop()
		defer context.AfterFunc(ctx, stop)()
		res <- e.flush(fctx, gen)
	})
	e.mu.Unlock()

	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-bg.Done():
		return nil
	}
}

func (e *Engine) flush(ctx context.Context, gen uint64) error {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return nil
	}
	userID := e.userID

	var batch []models.Entry
	for _, id := range e.local.LoadPendingIDs(ctx, userID) {
		i := slices.IndexFunc(e.cur, func(x models.Entry) bool { return x.ID == id })
		if i < 0 {
			e.local.RemovePendingID(ctx, id, userID)
			continue
		}
		batch = append(batch, e.cur[i])
	}
	tombstones := e.local.LoadTombstones(ctx, userID)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		if gen == e.gen {
			e.flushing = false
		}
		e.mu.Unlock()
	}()

	if len(batch) == 0 && len(tombstones) == 0 {
		return nil
	}

	slices.SortStableFunc(batch, func(a, b models.Entry) int { return a.UpdatedAt.Compare(b.UpdatedAt) })

	for _, entry := range batch {
		if !e.current(gen) {
			return nil
		}
		if err := e.remote.SaveEntry(ctx, entry, userID); err != nil {
			return fmt.Errorf("flush entry %s: %w", entry.ID, err)
		}
		e.local.RemovePendingID(ctx, entry.ID, userID)
	}

	for _, id := range tombstones {
		if !e.current(gen) {
			return nil
		}
		if err := e.remote.DeleteEntry(ctx, id, userID); err != nil {
			return fmt.Errorf("flush delete %s: %w", id, err)
		}
		e.local.RemoveTombstone(ctx, id, userID)
	}

	e.log.Info(ctx, "pending flushed", "writes", len(batch), "deletes", len(tombstones))
	return nil
}

func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.gen
}

func (e *Engine) goBackground(fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
}

func (e *Engine) publishLocked() {
	e.entries.Set(slices.Clone(e.cur))
}
