package chat

import "errors"

var (
	// ErrSessionNotFound means no durable row exists for the session id.
	ErrSessionNotFound = errors.New("chat: session not found")

	// ErrNotSessionOwner means the session exists but belongs to another user.
	ErrNotSessionOwner = errors.New("chat: not session owner")

	// ErrQuotaExceeded means the per-session question ceiling was reached.
	// The only way out is a fresh session.
	ErrQuotaExceeded = errors.New("chat: question quota exceeded")
)
