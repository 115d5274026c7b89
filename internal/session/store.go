package session

import (
	"context"
	"errors"
)

var (
	// ErrInvalidTransition indicates that a requested step change is not allowed.
	ErrInvalidTransition = errors.New("invalid step transition")
	// ErrSessionNotFound indicates that no session record exists for the user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionLocked indicates that a concurrent operation already holds the lock.
	ErrSessionLocked = errors.New("session is locked, try again later")
)

// Store defines the persistence contract for conversation sessions.
type Store interface {
	// Get returns the current session for the specified user.
	Get(ctx context.Context, userID int64) (*Session, error)
	// Set saves the provided session for the specified user.
	Set(ctx context.Context, userID int64, sess *Session) error
	// Clear removes the session for the specified user.
	Clear(ctx context.Context, userID int64) error
	// All returns every stored session.
	All(ctx context.Context) ([]*Session, error)
}
