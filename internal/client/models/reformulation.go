package models

import "fmt"

// Purpose is what the writer wants to achieve with the rewritten text.
type Purpose string

const (
	PurposeConvey       Purpose = "convey"
	PurposeDecline      Purpose = "decline"
	PurposeApologize    Purpose = "apologize"
	PurposeConsult      Purpose = "consult"
	PurposeRequest      Purpose = "request"
	PurposeShareFeeling Purpose = "share_feeling"
)

// Audience is who will read the rewritten text.
type Audience string

const (
	AudienceBoss      Audience = "boss"
	AudienceColleague Audience = "colleague"
	AudienceFriend    Audience = "friend"
	AudiencePartner   Audience = "partner"
	AudienceFamily    Audience = "family"
	AudienceStranger  Audience = "stranger"
)

// Tone is the register of the rewritten text.
type Tone string

const (
	TonePolite Tone = "polite"
	ToneSoft   Tone = "soft"
	ToneCasual Tone = "casual"
	ToneClear  Tone = "clear"
	ToneGentle Tone = "gentle"
)

var (
	Purposes  = []Purpose{PurposeConvey, PurposeDecline, PurposeApologize, PurposeConsult, PurposeRequest, PurposeShareFeeling}
	Audiences = []Audience{AudienceBoss, AudienceColleague, AudienceFriend, AudiencePartner, AudienceFamily, AudienceStranger}
	Tones     = []Tone{TonePolite, ToneSoft, ToneCasual, ToneClear, ToneGentle}
)

// ReformulationContext steers a reformulation request.
type ReformulationContext struct {
	Purpose  Purpose  `json:"purpose"`
	Audience Audience `json:"audience"`
	Tone     Tone     `json:"tone"`
}

// DefaultReformulationContext is used when the user picks nothing.
func DefaultReformulationContext() ReformulationContext {
	return ReformulationContext{Purpose: PurposeShareFeeling, Audience: AudienceColleague, Tone: ToneSoft}
}

// Key is a stable string form used for caching.
func (c ReformulationContext) Key() string {
	return fmt.Sprintf("%s|%s|%s", c.Purpose, c.Audience, c.Tone)
}

// Validate reports an error for values outside the known enumerations.
func (c ReformulationContext) Validate() error {
	if !contains(Purposes, c.Purpose) {
		return fmt.Errorf("unknown purpose %q", c.Purpose)
	}
	if !contains(Audiences, c.Audience) {
		return fmt.Errorf("unknown audience %q", c.Audience)
	}
	if !contains(Tones, c.Tone) {
		return fmt.Errorf("unknown tone %q", c.Tone)
	}
	return nil
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
