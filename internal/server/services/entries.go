package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/dbx"
	"github.com/gokigennote/gokigen/internal/server/models"
	"github.com/gokigennote/gokigen/internal/server/pagecache"
	"github.com/gokigennote/gokigen/internal/server/repositories/repomanager"
	"github.com/gookit/validate"
)

const (
	DefaultPageSize = 30
	MaxPageSize     = 100
	MaxBatchSize    = 500
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Page is one slice of a user's entries, newest first. NextCursor is empty
// on the last page.
type Page struct {
	Entries    []*models.Entry `json:"entries"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

// EntryService stores and pages journal entries. First pages are served
// from cache until the user's next write.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       *pagecache.Cache
	observer    CacheObserver
}

// CacheObserver counts first-page cache outcomes.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
}

func NewEntryService(db *sql.DB, m repomanager.RepositoryManager, cache *pagecache.Cache) *EntryService {
	return &EntryService{db: db, repomanager: m, cache: cache}
}

func (s *EntryService) ObserveCache(o CacheObserver) { s.observer = o }

// ValidateEntry checks field rules plus the mood range and timestamp order.
func ValidateEntry(e *models.Entry) error {
	if strings.TrimSpace(e.OriginalText) == "" {
		return common.ErrValidationEmpty
	}
	v := validate.Struct(e)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", common.ErrInvalidEntry, v.Errors.One())
	}
	switch {
	case e.Mood < models.MinMood || e.Mood > models.MaxMood:
		return fmt.Errorf("%w: mood %d out of range", common.ErrInvalidEntry, e.Mood)
	case e.Date.IsZero() || e.UpdatedAt.IsZero():
		return fmt.Errorf("%w: missing timestamps", common.ErrInvalidEntry)
	case e.UpdatedAt.Before(e.Date):
		return fmt.Errorf("%w: updatedAt before date", common.ErrInvalidEntry)
	}
	return nil
}

// Save validates and upserts one entry for userID.
func (s *EntryService) Save(ctx context.Context, userID string, e *models.Entry) error {
	if err := ValidateEntry(e); err != nil {
		return err
	}
	e.UserID = userID
	if err := s.repomanager.Entries(s.db).Upsert(ctx, e); err != nil {
		return err
	}
	s.cache.Invalidate(userID)
	return nil
}

// LoadPage returns up to limit entries after cursor.
func (s *EntryService) LoadPage(ctx context.Context, userID string, limit int, cursor string) (*Page, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	if after == nil {
		if raw, ok := s.cache.Get(userID, limit); ok {
			page := &Page{}
			if err := json.Unmarshal(raw, page); err == nil {
				if s.observer != nil {
					s.observer.CacheHit()
				}
				return page, nil
			}
		}
		if s.observer != nil {
			s.observer.CacheMiss()
		}
	}

	rows, err := s.repomanager.Entries(s.db).LoadPage(ctx, userID, limit+1, after)
	if err != nil {
		return nil, err
	}

	page := &Page{Entries: rows}
	if len(rows) > limit {
		page.Entries = rows[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = EncodeCursor(models.PageCursor{Date: last.Date, ID: last.ID})
	}

	if after == nil {
		if raw, err := json.Marshal(page); err == nil {
			s.cache.Set(userID, limit, raw)
		}
	}
	return page, nil
}

// Delete removes one entry; a missing entry is not an error.
func (s *EntryService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repomanager.Entries(s.db).Delete(ctx, userID, id); err != nil {
		return err
	}
	s.cache.Invalidate(userID)
	return nil
}

func (s *EntryService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.repomanager.Entries(s.db).DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(userID)
	return n, nil
}

// BatchMigrate upserts entries in one transaction: either all land or none.
func (s *EntryService) BatchMigrate(ctx context.Context, userID string, entries []*models.Entry) (int, error) {
	if len(entries) > MaxBatchSize {
		return 0, fmt.Errorf("%w: batch of %d exceeds %d", common.ErrInvalidEntry, len(entries), MaxBatchSize)
	}
	for _, e := range entries {
		if err := ValidateEntry(e); err != nil {
			return 0, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		e.UserID = userID
	}

	n, err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (int, error) {
		repo := s.repomanager.Entries(tx)
		for _, e := range entries {
			if err := repo.Upsert(ctx, e); err != nil {
				return 0, fmt.Errorf("entry %s: %w", e.ID, err)
			}
		}
		return len(entries), nil
	})
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(userID)
	return n, nil
}

func EncodeCursor(c models.PageCursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor returns nil for the empty cursor.
func DecodeCursor(s string) (*models.PageCursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	c := &models.PageCursor{}
	if err := json.Unmarshal(raw, c); err != nil || c.ID == "" || c.Date.IsZero() {
		return nil, ErrInvalidCursor
	}
	return c, nil
}
