// Package cli provides the interactive journal client.
//
// NewApp wires configuration, the local store, the gRPC remote, the sync
// engine, quota, the AI coordinator and the journal, then App.Root runs a
// REPL until the user exits. Login tries the server first and falls back to
// the cached credentials when it is unreachable; a background watcher
// drains the outbox whenever the server comes back.
package cli
