package models

import "time"

// RefreshToken is a single-use token exchanged for a new access token.
type RefreshToken struct {
	UserID  string    `json:"userId"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
