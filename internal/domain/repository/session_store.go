package repository

import (
	"context"
	"errors"
)

// Keys persisted by the session manager
const (
	KeyAccessToken          = "accessToken"
	KeyRefreshToken         = "refreshToken"
	KeyCurrentUser          = "currentUser"
	KeyPendingAdminUsername = "pendingAdminUsername"
	KeyRole                 = "role"
)

// SessionKeys lists every key the session manager writes
var SessionKeys = []string{
	KeyAccessToken,
	KeyRefreshToken,
	KeyCurrentUser,
	KeyPendingAdminUsername,
	KeyRole,
}

// ErrCorruptStore is returned when persisted data cannot be decoded
var ErrCorruptStore = errors.New("session store is corrupt")

// SessionStore is a string key-value store that survives process restarts
type SessionStore interface {
	// Get returns the value of key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Update removes the listed keys and then writes values as one change
	Update(ctx context.Context, values map[string]string, remove ...string) error
	// Remove deletes keys; missing keys are not an error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}
