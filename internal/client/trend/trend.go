// Package trend summarizes recent mood entries.
package trend

import (
	"fmt"
	"slices"
	"time"

	"github.com/gokigennote/gokigen/internal/client/models"
)

// Window is how many of the newest entries are summarized.
const Window = 14

type Snapshot struct {
	AverageScore    float64
	PositiveRatio   float64
	NegativeRatio   float64
	ConsecutiveDays int
	SampleCount     int
	LastUpdated     time.Time
	DominantEmoji   string
	Feedback        string
}

func (s Snapshot) IsEmpty() bool { return s.SampleCount == 0 }

// Empty is returned when there is nothing to summarize.
var Empty = Snapshot{
	DominantEmoji: models.MoodHappy.Emoji(),
	Feedback:      "No entries yet. Start with one line about today.",
}

// Compute summarizes the newest Window entries. Calendar days are taken in
// loc; nil means UTC. The input is not modified.
func Compute(entries []models.Entry, loc *time.Location) Snapshot {
	if len(entries) == 0 {
		return Empty
	}
	if loc == nil {
		loc = time.UTC
	}

	latest := slices.Clone(entries)
	slices.SortStableFunc(latest, func(a, b models.Entry) int { return b.Date.Compare(a.Date) })
	if len(latest) > Window {
		latest = latest[:Window]
	}

	var sum, positives, negatives int
	for _, e := range latest {
		sum += int(e.Mood)
		switch {
		case e.Mood > models.MoodNeutral:
			positives++
		case e.Mood < models.MoodNeutral:
			negatives++
		}
	}
	n := len(latest)
	avg := float64(sum) / float64(n)

	tendency := "lean a little positive"
	if avg < 0 {
		tendency = "look a little tired"
	}

	return Snapshot{
		AverageScore:    avg,
		PositiveRatio:   float64(positives) / float64(n),
		NegativeRatio:   float64(negatives) / float64(n),
		ConsecutiveDays: streak(latest, loc),
		SampleCount:     n,
		LastUpdated:     latest[0].Date,
		DominantEmoji:   latest[0].Mood.Emoji(),
		Feedback:        fmt.Sprintf("Your last %d entries %s. Average %.1f, positive %d / negative %d.", n, tendency, avg, positives, negatives),
	}
}

// streak counts distinct calendar days walking back from the newest entry
// until two consecutive distinct days are more than one day apart.
func streak(newestFirst []models.Entry, loc *time.Location) int {
	count := 1
	last := dayNumber(newestFirst[0].Date, loc)
	for _, e := range newestFirst[1:] {
		d := dayNumber(e.Date, loc)
		switch last - d {
		case 0:
			continue
		case 1:
			count++
			last = d
		default:
			return count
		}
	}
	return count
}

// dayNumber maps t to a day index in loc so that subtraction counts
// calendar days regardless of DST.
func dayNumber(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
