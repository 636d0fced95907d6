// Package models defines the journal entry and its value types.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/gokigennote/gokigen/internal/common"
	"github.com/google/uuid"
)

// Entry is one journal record. It is replaced as a whole on every edit.
type Entry struct {
	ID               uuid.UUID `json:"id"`
	Date             time.Time `json:"date"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Mood             Mood      `json:"mood"`
	OriginalText     string    `json:"originalText"`
	ReformulatedText string    `json:"reformulatedText,omitempty"`
	EmpathyText      string    `json:"empathyText,omitempty"`
	NextStep         string    `json:"nextStep,omitempty"`
}

// NewEntry creates an entry with a fresh id and both timestamps set to now.
func NewEntry(now time.Time, mood Mood, text string) Entry {
	return Entry{
		ID:           uuid.New(),
		Date:         now,
		UpdatedAt:    now,
		Mood:         mood,
		OriginalText: strings.TrimSpace(text),
	}
}

// Touch returns a copy with UpdatedAt moved to now, never before Date.
func (e Entry) Touch(now time.Time) Entry {
	if now.Before(e.Date) {
		now = e.Date
	}
	e.UpdatedAt = now
	return e
}

// Validate checks the invariants a persisted entry must hold.
func (e Entry) Validate() error {
	switch {
	case e.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", common.ErrInvalidEntry)
	case strings.TrimSpace(e.OriginalText) == "":
		return common.ErrValidationEmpty
	case !e.Mood.Valid():
		return fmt.Errorf("%w: mood %d out of range", common.ErrInvalidEntry, e.Mood)
	case e.UpdatedAt.Before(e.Date):
		return fmt.Errorf("%w: updatedAt before date", common.ErrInvalidEntry)
	}
	return nil
}
