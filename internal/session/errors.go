package session

import "errors"

var (
	// ErrNotFound covers never-existed, expired and closed alike.
	ErrNotFound = errors.New("session not found")
	ErrConflict = errors.New("session id collision")
	ErrEntropy  = errors.New("entropy source unavailable")
)
