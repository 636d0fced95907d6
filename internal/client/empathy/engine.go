// Package empathy is the offline rule engine used whenever the remote text
// generator is unavailable, over budget, or not configured.
package empathy

import (
	"strings"

	"github.com/gokigennote/gokigen/internal/client/models"
)

// negativeKeywords flag a rough day even when the mood picker says otherwise.
var negativeKeywords = []string{
	"つかれ", "疲れ", "しんど", "ムカ", "不安", "かなしい", "悲し",
	"こわ", "怖", "きつ", "イライラ", "怒", "失敗",
	"tired", "exhausted", "anxious", "afraid", "scared", "angry",
	"sad", "failed", "stressed", "overwhelmed",
}

// Result is the empathy message and the suggested next step.
type Result struct {
	Empathy  string
	NextStep string
}

// IsNegative reports whether text or mood indicate a rough day.
func IsNegative(text string, mood models.Mood) bool {
	if mood < models.MoodNeutral {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Rewrite picks one of three fixed responses.
func Rewrite(text string, mood models.Mood) Result {
	switch {
	case IsNegative(text, mood):
		return Result{
			Empathy:  "It has been a heavy day and you still made it here. Take a slow breath. This is not your fault.",
			NextStep: "Rest a little tonight. A warm drink would be a good start.",
		}
	case mood > models.MoodNeutral:
		return Result{
			Empathy:  "That went well. The feeling you have right now comes from your own effort.",
			NextStep: "Write down one more small thing you would like to try.",
		}
	default:
		return Result{
			Empathy:  "Getting through an ordinary day steadily is already worth something.",
			NextStep: "Try one minute of stretching. It tends to lighten the mood.",
		}
	}
}

// Reformulate frames text for the given context without any model.
func Reformulate(text string, ctx models.ReformulationContext) string {
	body := strings.TrimSpace(text)
	if body == "" {
		return ""
	}
	opening := openings[ctx.Tone]
	if opening == "" {
		opening = openings[models.ToneSoft]
	}
	closing := closings[ctx.Purpose]
	if closing == "" {
		closing = closings[models.PurposeShareFeeling]
	}
	if ctx.Audience == models.AudienceBoss || ctx.Audience == models.AudienceStranger {
		opening = openings[models.TonePolite]
	}
	return opening + " " + body + " " + closing
}

var openings = map[models.Tone]string{
	models.TonePolite: "I hope you don't mind me sharing this.",
	models.ToneSoft:   "I wanted to tell you something.",
	models.ToneCasual: "Hey, quick one.",
	models.ToneClear:  "To be direct:",
	models.ToneGentle: "No pressure at all, but",
}

var closings = map[models.Purpose]string{
	models.PurposeConvey:       "Thanks for hearing me out.",
	models.PurposeDecline:      "I'm sorry I can't take this on right now.",
	models.PurposeApologize:    "I'm sorry, and I'll do better.",
	models.PurposeConsult:      "Could I get your advice on this?",
	models.PurposeRequest:      "Would you be able to help with this?",
	models.PurposeShareFeeling: "I just wanted you to know how I feel.",
}
