// Package models defines server-side data models persisted in the database.
package models

import "time"

// Mood bounds mirror the client's five-point scale.
const (
	MinMood = -2
	MaxMood = 2
)

// Entry is one journal record owned by UserID. Rows are replaced as a
// whole on every save; the latest write wins.
type Entry struct {
	ID               string    `json:"id" validate:"required|uuid"`
	UserID           string    `json:"-"`
	Date             time.Time `json:"date" validate:"required"`
	UpdatedAt        time.Time `json:"updatedAt" validate:"required"`
	Mood             int       `json:"mood"`
	OriginalText     string    `json:"originalText" validate:"required|maxLen:20000"`
	ReformulatedText string    `json:"reformulatedText,omitempty" validate:"maxLen:20000"`
	EmpathyText      string    `json:"empathyText,omitempty" validate:"maxLen:4000"`
	NextStep         string    `json:"nextStep,omitempty" validate:"maxLen:4000"`
}

// PageCursor points just past the last row of a page in (date desc, id desc)
// order.
type PageCursor struct {
	Date time.Time `json:"d"`
	ID   string    `json:"i"`
}
