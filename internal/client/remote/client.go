package remote

import (
	"context"

	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/google/uuid"
)

// Client is the transport-agnostic API of the journal service.
type Client interface {
	Close() error
	Register(ctx context.Context, username string, salt []byte, verifier []byte) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) (string, error)
	Logout()
	Ping(ctx context.Context) error

	SaveEntry(ctx context.Context, entry models.Entry, userID string) error
	LoadPage(ctx context.Context, userID string, limit int, cursor string) ([]models.Entry, string, error)
	DeleteEntry(ctx context.Context, id uuid.UUID, userID string) error
	DeleteAll(ctx context.Context, userID string) error
	BatchMigrate(ctx context.Context, entries []models.Entry, userID string) error
	ExportEntries(ctx context.Context) (Export, error)
}
