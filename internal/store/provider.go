// Package store persists application state as whole-collection JSON
// snapshots in a single local key-value table.
package store

// Persisted-state keys. Collections are JSON arrays; scalars are raw
// strings (soundEnabled is the stringified boolean "true"/"false").
const (
	KeyTasks        = "tasks"
	KeyNotes        = "notes"
	KeyReminders    = "reminders"
	KeyUsername     = "username"
	KeyTheme        = "theme"
	KeySoundEnabled = "soundEnabled"
)

// Provider is the interface for durable key-value state.
type Provider interface {
	// Load JSON-decodes the value under key into v. It reports whether
	// the key was present.
	Load(key string, v any) (bool, error)
	// Save JSON-encodes v and writes it under key, replacing any
	// previous value.
	Save(key string, v any) error
	// GetScalar returns the raw string under key and whether it was present.
	GetScalar(key string) (string, bool, error)
	// SetScalar writes a raw string under key.
	SetScalar(key, value string) error
	Close() error
}
