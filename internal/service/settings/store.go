package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zaviye/zaviye/internal/model/persona"
	"github.com/zaviye/zaviye/internal/storage"
)

// Store layers persisted user overrides on top of the built-in persona
// settings.
type Store struct {
	mu        sync.RWMutex
	kv        storage.Store
	defaults  map[string]persona.Settings
	overrides map[string]persona.Override
	logger    *slog.Logger
}

// NewStore builds a Store over the given personas and loads any persisted
// overrides from kv. Corrupt or unknown persisted entries are ignored.
func NewStore(kv storage.Store, personas []persona.Persona, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		kv:        kv,
		defaults:  make(map[string]persona.Settings, len(personas)),
		overrides: make(map[string]persona.Override),
		logger:    logger.With("component", "settings"),
	}
	for _, p := range personas {
		s.defaults[p.ID] = p.Settings()
	}

	s.load()
	return s
}

func (s *Store) load() {
	raw, ok, err := s.kv.Get(storage.SettingsKey)
	if err != nil {
		s.logger.Warn("settings_load_failed", "error", err)
		return
	}
	if !ok {
		return
	}

	var stored map[string]persona.Override
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("settings_parse_failed", "error", err)
		return
	}
	for id, override := range stored {
		if _, known := s.defaults[id]; !known || override.IsZero() {
			continue
		}
		s.overrides[id] = override
	}
}

// Effective returns the defaults of the persona merged with its override.
func (s *Store) Effective(personaID string) (persona.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base, ok := s.defaults[personaID]
	if !ok {
		return persona.Settings{}, fmt.Errorf("%w: %q", persona.ErrUnknownPersona, personaID)
	}
	return s.overrides[personaID].Apply(base), nil
}

// Overrides returns the current partial override of the persona.
func (s *Store) Overrides(personaID string) (persona.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.defaults[personaID]; !ok {
		return persona.Override{}, fmt.Errorf("%w: %q", persona.ErrUnknownPersona, personaID)
	}
	return s.overrides[personaID], nil
}

// Update merges partial into the override of one persona and persists the
// whole override layer.
func (s *Store) Update(personaID string, partial persona.Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.defaults[personaID]; !ok {
		return fmt.Errorf("%w: %q", persona.ErrUnknownPersona, personaID)
	}

	merged := s.overrides[personaID].Merge(partial)
	if merged.IsZero() {
		return nil
	}
	s.overrides[personaID] = merged
	return s.persistLocked()
}

// Reset drops the override of one persona, reverting it to the defaults.
func (s *Store) Reset(personaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.defaults[personaID]; !ok {
		return fmt.Errorf("%w: %q", persona.ErrUnknownPersona, personaID)
	}
	delete(s.overrides, personaID)
	return s.persistLocked()
}

// persistLocked writes the override layer; an empty layer removes the key.
func (s *Store) persistLocked() error {
	if len(s.overrides) == 0 {
		if err := s.kv.Delete(storage.SettingsKey); err != nil {
			return fmt.Errorf("clear settings: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(s.overrides)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.kv.Set(storage.SettingsKey, string(data)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
