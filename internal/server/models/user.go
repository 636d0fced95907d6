package models

import "time"

// User is an account. The password never reaches the server: only the
// salt and the verifier derived from it on the client are stored.
type User struct {
	ID        string
	UserName  string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}
