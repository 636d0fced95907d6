// Package common contains shared constants and sentinel errors used across
// Gokigen components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// UserIDHeaderName carries the caller's user id alongside the access token.
// The server rejects calls where it disagrees with the token subject.
const UserIDHeaderName = "user_id"
