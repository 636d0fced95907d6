package entries

import (
	"context"

	"github.com/gokigennote/gokigen/internal/server/models"
)

// Repository stores journal entries per user.
type Repository interface {
	// Upsert writes entry for its user, replacing any version with an
	// UpdatedAt not after its own. An older write is a no-op.
	// An id already owned by another user yields common.ErrVersionConflict.
	Upsert(ctx context.Context, entry *models.Entry) error
	// LoadPage returns up to limit entries after cursor in (date desc, id desc)
	// order. A nil cursor starts at the newest entry.
	LoadPage(ctx context.Context, userID string, limit int, cursor *models.PageCursor) ([]*models.Entry, error)
	// Delete removes one entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	SelectAll(ctx context.Context, userID string) ([]*models.Entry, error)
}
