package momentum

import (
	"errors"

	"github.com/benvon/social-momentum/internal/database"
)

var (
	// ErrUserNotFound is returned when the user's profile does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrNudgeNotFound is returned when a nudge does not exist or belongs to another user
	ErrNudgeNotFound = errors.New("nudge not found")
)

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
