package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/gokigennote/gokigen/internal/client/remote"
	"github.com/gokigennote/gokigen/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email and password and creates the account.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, userName, password); err != nil {
		a.println("Registration failed:", err)
		return err
	}

	a.println("Success!")
	return nil
}

// Login prompts for credentials and authenticates.
//
// The online login is tried first. When the server is unavailable (or the
// call times out) the cached credentials are used instead. On success the
// journal is bound to the user, which publishes the local entries at once.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	userID, err := a.authService.OnlineLogin(ctx, userName, password)
	switch {
	case err == nil:
		a.log.Info(ctx, "online login", "user", userName)
	case errors.Is(err, remote.ErrUnavailable) || errors.Is(err, common.ErrTimeout):
		a.println("Server unavailable, trying offline login...")
		userID, err = a.authService.OfflineLogin(ctx, userName, password)
		if err != nil {
			a.println("Offline login unsuccessful:", err)
			return err
		}
	default:
		a.println("Login unsuccessful:", err)
		return err
	}

	a.setUser(userID, userName)
	a.binder.Bind(ctx, userID)
	a.println(fmt.Sprintf("Logged in as %s (%s).", userName, a.mode()))
	return nil
}

// Logout unbinds the journal and forgets the cached credentials. Local
// entries stay on the device.
func (a *App) Logout(ctx context.Context) error {
	if a.binder != nil {
		a.binder.Unbind()
	}
	a.setUser("", "")
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.println("Logged out.")
	return nil
}
