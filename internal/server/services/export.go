package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gokigennote/gokigen/internal/server/models"
	"github.com/gokigennote/gokigen/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const exportContentType = "application/zstd"

// ObjectStore is where export archives go.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Export describes an uploaded archive.
type Export struct {
	URL       string
	Key       string
	Count     int
	ExpiresAt time.Time
}

// ExportService snapshots a user's journal as zstd-compressed JSON in
// object storage and returns a short-lived download link.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       ObjectStore
	ttl         time.Duration
	encoder     *zstd.Encoder
	now         func() time.Time
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, store ObjectStore, ttl time.Duration) (*ExportService, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return &ExportService{db: db, repomanager: m, store: store, ttl: ttl, encoder: enc, now: time.Now}, nil
}

func (s *ExportService) Export(ctx context.Context, userID string) (*Export, error) {
	entries, err := s.repomanager.Entries(s.db).SelectAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.Entry{}
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	body := s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))

	now := s.now().UTC()
	key := fmt.Sprintf("exports/%s/%s-%s.json.zst", userID, now.Format("20060102T150405Z"), uuid.New())
	if err := s.store.Put(ctx, key, body, exportContentType); err != nil {
		return nil, err
	}

	url, err := s.store.PresignGet(ctx, key, s.ttl)
	if err != nil {
		return nil, err
	}
	return &Export{URL: url, Key: key, Count: len(entries), ExpiresAt: now.Add(s.ttl)}, nil
}
