package remote

import (
	"errors"

	"github.com/gokigennote/gokigen/internal/common"
)

var (
	// ErrUnavailable matches common.ErrRemoteUnavailable.
	ErrUnavailable           = common.ErrRemoteUnavailable
	ErrUnauthorized          = common.ErrorUnauthorized
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
	ErrNotLoggedIn           = errors.New("not logged in")
)
