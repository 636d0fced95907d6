package journal

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/gokigennote/gokigen/internal/client/models"
)

// exportedEntry declares its fields in key order so the output is sorted.
type exportedEntry struct {
	Date             string `json:"date"`
	EmpathyText      string `json:"empathyText"`
	ID               string `json:"id"`
	Mood             int    `json:"mood"`
	NextStep         string `json:"nextStep"`
	OriginalText     string `json:"originalText"`
	ReformulatedText string `json:"reformulatedText"`
	UpdatedAt        string `json:"updatedAt"`
}

// ExportJSON renders entries as indented JSON with ISO-8601 dates.
func ExportJSON(entries []models.Entry) ([]byte, error) {
	out := make([]exportedEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, exportedEntry{
			Date:             e.Date.UTC().Format(time.RFC3339),
			EmpathyText:      e.EmpathyText,
			ID:               e.ID.String(),
			Mood:             int(e.Mood),
			NextStep:         e.NextStep,
			OriginalText:     e.OriginalText,
			ReformulatedText: e.ReformulatedText,
			UpdatedAt:        e.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// ExportJSON exports the entries currently in memory.
func (j *Journal) ExportJSON() ([]byte, error) {
	return ExportJSON(j.store.Entries())
}
