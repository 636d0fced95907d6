package rpc

import "time"

// Entry is the wire form of a journal entry.
type Entry struct {
	ID               string    `json:"id"`
	Date             time.Time `json:"date"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Mood             int       `json:"mood"`
	OriginalText     string    `json:"originalText"`
	ReformulatedText string    `json:"reformulatedText,omitempty"`
	EmpathyText      string    `json:"empathyText,omitempty"`
	NextStep         string    `json:"nextStep,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

type GetSaltRequest struct {
	Username string `json:"username"`
}

type GetSaltResponse struct {
	Salt []byte `json:"salt"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Verifier []byte `json:"verifier"`
}

type LoginResponse struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type SaveEntryRequest struct {
	Entry Entry `json:"entry"`
}

type SaveEntryResponse struct{}

// LoadPageRequest asks for entries after Cursor, newest first. An empty
// cursor means the first page.
type LoadPageRequest struct {
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

// LoadPageResponse carries an empty NextCursor when there are no more pages.
type LoadPageResponse struct {
	Entries    []Entry `json:"entries"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

type DeleteEntryRequest struct {
	ID string `json:"id"`
}

type DeleteEntryResponse struct{}

type DeleteAllRequest struct{}

type DeleteAllResponse struct {
	Deleted int64 `json:"deleted"`
}

type BatchMigrateRequest struct {
	Entries []Entry `json:"entries"`
}

type BatchMigrateResponse struct {
	Migrated int `json:"migrated"`
}

type ExportEntriesRequest struct{}

type ExportEntriesResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expiresAt"`
}
