package models

// Mood is an ordered five-level score from -2 to +2.
type Mood int

const (
	MoodVerySad   Mood = -2
	MoodSad       Mood = -1
	MoodNeutral   Mood = 0
	MoodHappy     Mood = 1
	MoodVeryHappy Mood = 2
)

// Moods lists every level from best to worst.
var Moods = []Mood{MoodVeryHappy, MoodHappy, MoodNeutral, MoodSad, MoodVerySad}

func (m Mood) Valid() bool {
	return m >= MoodVerySad && m <= MoodVeryHappy
}

func (m Mood) Emoji() string {
	switch m {
	case MoodVeryHappy:
		return "😊"
	case MoodHappy:
		return "🙂"
	case MoodSad:
		return "😞"
	case MoodVerySad:
		return "😢"
	default:
		return "😐"
	}
}

func (m Mood) Label() string {
	switch m {
	case MoodVeryHappy:
		return "great"
	case MoodHappy:
		return "good"
	case MoodSad:
		return "a bit rough"
	case MoodVerySad:
		return "rough"
	default:
		return "okay"
	}
}

// ParseMood accepts a numeric score or an emoji.
func ParseMood(s string) (Mood, bool) {
	for _, m := range Moods {
		if s == m.Emoji() || s == m.Label() {
			return m, true
		}
	}
	switch s {
	case "-2":
		return MoodVerySad, true
	case "-1":
		return MoodSad, true
	case "0":
		return MoodNeutral, true
	case "1", "+1":
		return MoodHappy, true
	case "2", "+2":
		return MoodVeryHappy, true
	}
	return MoodNeutral, false
}
