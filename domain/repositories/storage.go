package repositories

import "context"

// Persistent attribute keys. The layout of the backing store is opaque
// beyond these.
const (
	AttributeVolume   = "volume"
	AttributeDeviceID = "device_id"
)

// SessionStore holds per-session, non-durable attributes. The conversation
// continuation blob lives here: read before each exchange, overwritten at
// commit, at most one writer per session at a time.
type SessionStore interface {
	GetConversationState(sessionID string) []byte
	SetConversationState(sessionID string, state []byte)
	// Drop discards all state for an ended session.
	Drop(sessionID string)
}

// PersistentStore is the durable per-user key/value store. Writes with
// commit=false stage the value in memory; a write with commit=true flushes
// everything staged for that user.
type PersistentStore interface {
	GetString(ctx context.Context, userID, key string) (string, error)
	GetInt(ctx context.Context, userID, key string, fallback int) (int, error)
	Set(ctx context.Context, userID, key string, value interface{}, commit bool) error
}
