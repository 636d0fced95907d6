// Package services contains application services for the journal client.
// This file defines the authentication service: online and offline login,
// registration, a liveness probe and the locally cached login record.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gokigennote/gokigen/internal/client/remote"
	"github.com/gokigennote/gokigen/internal/client/repositories/kv"
	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/cryptox"
)

// DefaultTimeout bounds every auth call, including key derivation.
const DefaultTimeout = 20 * time.Second

const offlineAuthKey = "auth.offline"

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - OnlineLogin: authenticate against the server and cache what offline
//     login needs.
//   - OfflineLogin: verify credentials against the cached record.
//   - Register: create a new user on the server.
//   - Logout: forget the session and the cached record.
//
// Both logins return the server's user id, which scopes the journal.
type AuthService interface {
	OfflineLogin(ctx context.Context, username string, password []byte) (string, error)
	OnlineLogin(ctx context.Context, username string, password []byte) (string, error)
	Register(ctx context.Context, username string, password []byte) error
	Ping(ctx context.Context) error
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

// AuthClient is the subset of remote.Client used for authentication.
type AuthClient interface {
	Close() error
	Register(ctx context.Context, username string, salt []byte, verifier []byte) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) (string, error)
	Logout()
	Ping(ctx context.Context) error
}

type offlineAuth struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type authService struct {
	client  AuthClient
	store   kv.Store
	timeout time.Duration
}

func NewAuthService(client AuthClient, store kv.Store, timeout time.Duration) AuthService {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &authService{client: client, store: store, timeout: timeout}
}

// withTimeout runs fn under the service deadline and reports an expired
// deadline as common.ErrTimeout.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	v, err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var zero T
		return zero, fmt.Errorf("%w: %w", common.ErrTimeout, err)
	}
	return v, err
}

// OfflineLogin verifies the password against the cached verifier. Missing
// local data yields remote.ErrLocalDataNotAvailable; a mismatch yields
// remote.ErrUnauthorized.
func (a *authService) OfflineLogin(ctx context.Context, username string, password []byte) (string, error) {
	return withTimeout(ctx, a.timeout, func(ctx context.Context) (string, error) {
		saved, err := a.loadOfflineData(ctx)
		if err != nil {
			return "", err
		}
		if saved.Username != username {
			return "", remote.ErrUnauthorized
		}

		key := cryptox.DeriveMasterKey(password, saved.Salt)
		defer common.WipeByteArray(key)
		if !cryptox.VerifierEqual(saved.Verifier, cryptox.MakeVerifier(key)) {
			return "", remote.ErrUnauthorized
		}
		return saved.UserID, nil
	})
}

// OnlineLogin authenticates against the server and caches username, salt
// and verifier for later offline logins.
func (a *authService) OnlineLogin(ctx context.Context, username string, password []byte) (string, error) {
	return withTimeout(ctx, a.timeout, func(ctx context.Context) (string, error) {
		salt, err := a.client.GetSalt(ctx, username)
		if err != nil {
			return "", fmt.Errorf("get salt error: %w", err)
		}

		key := cryptox.DeriveMasterKey(password, salt)
		defer common.WipeByteArray(key)
		verifier := cryptox.MakeVerifier(key)

		userID, err := a.client.Login(ctx, username, verifier)
		if err != nil {
			return "", fmt.Errorf("login error: %w", err)
		}

		rec := offlineAuth{Username: username, UserID: userID, Salt: salt, Verifier: verifier}
		if err := a.saveOfflineData(ctx, rec); err != nil {
			return "", fmt.Errorf("offline data saving error: %w", err)
		}
		return userID, nil
	})
}

// Register generates a random salt, derives the verifier from password and
// sends both to the server.
func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	_, err := withTimeout(ctx, a.timeout, func(ctx context.Context) (struct{}, error) {
		salt := common.GenerateRandByteArray(32)
		key := cryptox.DeriveMasterKey(password, salt)
		defer common.WipeByteArray(key)

		return struct{}{}, a.client.Register(ctx, username, salt, cryptox.MakeVerifier(key))
	})
	return err
}

func (a *authService) Ping(ctx context.Context) error {
	_, err := withTimeout(ctx, a.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.client.Ping(ctx)
	})
	return err
}

// Logout drops the tokens and the cached login record.
func (a *authService) Logout(ctx context.Context) error {
	a.client.Logout()
	return a.store.Delete(ctx, offlineAuthKey)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

func (a *authService) loadOfflineData(ctx context.Context) (offlineAuth, error) {
	var rec offlineAuth
	raw, err := a.store.Get(ctx, offlineAuthKey)
	if err != nil {
		return rec, err
	}
	if raw == nil {
		return rec, remote.ErrLocalDataNotAvailable
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", common.ErrDecodeFailure, err)
	}
	return rec, nil
}

func (a *authService) saveOfflineData(ctx context.Context, rec offlineAuth) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, offlineAuthKey, raw)
}
