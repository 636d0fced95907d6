// Package refreshtokens stores the single-use refresh tokens of the
// authentication flow, in PostgreSQL or Redis.
package refreshtokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gokigennote/gokigen/internal/server/models"
)

// Repository issues and redeems refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Consume removes the token and returns what it was issued for, so a
	// token can be redeemed only once. An unknown token yields
	// common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)
}

// hashToken keeps raw tokens out of storage.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
