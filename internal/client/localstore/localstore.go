// Package localstore persists a user's journal on the device: the full entry
// list, the outbox of ids awaiting a remote write, the tombstones of ids
// awaiting a remote delete, and small scalar counters.
//
// Nothing here returns an error. A failed read yields an empty value and a
// failed write is logged; in-memory state stays authoritative and the next
// write retries.
package localstore

import (
	"context"
	"slices"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/gokigennote/gokigen/internal/client/repositories/kv"
	"github.com/gokigennote/gokigen/internal/logging"
	"github.com/google/uuid"
)

const (
	entriesKeyPrefix   = "entries_v1_"
	pendingKeyPrefix   = "pending_entry_ids_"
	tombstoneKeyPrefix = "pending_deleted_ids_"
	counterKeyPrefix   = "counter."

	// legacyEntriesKey held entries written before accounts existed.
	legacyEntriesKey = "entries_v1"
)

type Store struct {
	kv  kv.Store
	log logging.Logger

	// mu serializes read-modify-write of the id sets.
	mu sync.Mutex
}

func New(store kv.Store, log logging.Logger) *Store {
	return &Store{kv: store, log: log.With("module", "localstore")}
}

func (s *Store) LoadEntries(ctx context.Context, userID string) []models.Entry {
	return s.loadEntries(ctx, entriesKeyPrefix+userID)
}

// SaveEntries overwrites the whole list for userID.
func (s *Store) SaveEntries(ctx context.Context, entries []models.Entry, userID string) {
	if entries == nil {
		entries = []models.Entry{}
	}
	s.put(ctx, entriesKeyPrefix+userID, entries)
}

// LoadLegacyEntries returns entries stored under the pre-account key.
func (s *Store) LoadLegacyEntries(ctx context.Context) []models.Entry {
	return s.loadEntries(ctx, legacyEntriesKey)
}

func (s *Store) ClearLegacyEntries(ctx context.Context) {
	if err := s.kv.Delete(ctx, legacyEntriesKey); err != nil {
		s.log.Warn(ctx, "clear legacy entries failed", "err", err)
	}
}

func (s *Store) LoadPendingIDs(ctx context.Context, userID string) []uuid.UUID {
	return s.loadIDs(ctx, pendingKeyPrefix+userID)
}

func (s *Store) SavePendingIDs(ctx context.Context, ids []uuid.UUID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(ctx, pendingKeyPrefix+userID, dedupe(ids))
}

func (s *Store) AddPendingID(ctx context.Context, id uuid.UUID, userID string) {
	s.addIDs(ctx, pendingKeyPrefix+userID, id)
}

func (s *Store) RemovePendingID(ctx context.Context, id uuid.UUID, userID string) {
	s.removeID(ctx, pendingKeyPrefix+userID, id)
}

// LoadTombstones returns ids deleted locally whose remote delete has not
// been confirmed.
func (s *Store) LoadTombstones(ctx context.Context, userID string) []uuid.UUID {
	return s.loadIDs(ctx, tombstoneKeyPrefix+userID)
}

func (s *Store) AddTombstones(ctx context.Context, userID string, ids ...uuid.UUID) {
	s.addIDs(ctx, tombstoneKeyPrefix+userID, ids...)
}

func (s *Store) RemoveTombstone(ctx context.Context, id uuid.UUID, userID string) {
	s.removeID(ctx, tombstoneKeyPrefix+userID, id)
}

// Counter is a usage count bucketed by a period key such as a day or month.
type Counter struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// LoadCounter returns the counter stored under name, or the zero Counter.
func (s *Store) LoadCounter(ctx context.Context, name string) Counter {
	var c Counter
	if !s.get(ctx, counterKeyPrefix+name, &c) {
		return Counter{}
	}
	return c
}

func (s *Store) SaveCounter(ctx context.Context, name string, c Counter) {
	s.put(ctx, counterKeyPrefix+name, c)
}

func (s *Store) loadEntries(ctx context.Context, key string) []models.Entry {
	var entries []models.Entry
	if !s.get(ctx, key, &entries) {
		return []models.Entry{}
	}
	return entries
}

func (s *Store) loadIDs(ctx context.Context, key string) []uuid.UUID {
	var ids []uuid.UUID
	if !s.get(ctx, key, &ids) {
		return []uuid.UUID{}
	}
	return dedupe(ids)
}

func (s *Store) addIDs(ctx context.Context, key string, ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.loadIDs(ctx, key)
	s.put(ctx, key, dedupe(append(cur, ids...)))
}

func (s *Store) removeID(ctx context.Context, key string, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.loadIDs(ctx, key)
	i := slices.Index(cur, id)
	if i < 0 {
		return
	}
	s.put(ctx, key, slices.Delete(cur, i, i+1))
}

func (s *Store) get(ctx context.Context, key string, v any) bool {
	b, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "local read failed", "key", key, "err", err)
		return false
	}
	if len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		s.log.Warn(ctx, "local data corrupt, treating as empty", "key", key, "err", err)
		return false
	}
	return true
}

func (s *Store) put(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error(ctx, "encode local data failed", "key", key, "err", err)
		return
	}
	if err := s.kv.Set(ctx, key, b); err != nil {
		s.log.Warn(ctx, "local write failed", "key", key, "err", err)
	}
}

// dedupe keeps the first occurrence of every id.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
