// Package remote talks to the journal service over gRPC.
//
// GRPCClient injects the access token into every call through a unary
// interceptor, refreshes it once when the server reports it expired and maps
// gRPC status codes to sentinel errors. It implements the sync engine's
// remote store and the auth calls used by the login flow.
package remote
