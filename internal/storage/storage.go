// Package storage provides the synchronous key-value store that holds
// persisted chat state. Values are UTF-8 JSON text.
package storage

import (
	"fmt"
	"strings"
)

// Store is a synchronous string key-value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

const keyPrefix = "zaviye"

// SettingsKey holds the serialized settings-override layer for all personas.
const SettingsKey = keyPrefix + "-chat-settings"

// MessagesKey holds the serialized conversation of a persona.
func MessagesKey(personaID string) string {
	return keyPrefix + "-" + personaID + "-messages"
}

// StartedKey holds the started flag of a persona.
func StartedKey(personaID string) string {
	return keyPrefix + "-" + personaID + "-started"
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates the store for the named backend. path is ignored by the
// memory backend.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", backend)
	}
}
