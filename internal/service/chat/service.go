// Package chat holds the per-persona chat session state machine: message
// history, the single in-flight completion and their persistence.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zaviye/zaviye/internal/model/chat"
	"github.com/zaviye/zaviye/internal/model/persona"
	"github.com/zaviye/zaviye/internal/service/completion"
	"github.com/zaviye/zaviye/internal/storage"
)

var (
	ErrEmptyMessage        = errors.New("message is empty")
	ErrNothingToRegenerate = errors.New("could not find a message to regenerate")
	ErrNoPersona           = errors.New("no persona loaded")
)

// errSuperseded is returned to a caller whose call was cancelled and
// replaced before it settled.
var errSuperseded = &completion.Failure{Kind: completion.ErrCancelled, Message: "request superseded"}

// SettingsProvider resolves the effective settings of a persona.
type SettingsProvider interface {
	Effective(personaID string) (persona.Settings, error)
}

// Options wires a Manager.
type Options struct {
	Store     storage.Store
	Settings  SettingsProvider
	Completer completion.Completer
	Personas  persona.Store
	Clock     func() time.Time
	Logger    *slog.Logger
}

// Manager owns the conversation of one persona at a time. At most one
// completion is in flight; starting another cancels it first. The mutex is
// never held while waiting on the network.
type Manager struct {
	mu        sync.Mutex
	kv        storage.Store
	settings  SettingsProvider
	completer completion.Completer
	personas  persona.Store
	now       func() time.Time
	logger    *slog.Logger

	personaID string
	messages  []chat.Message
	started   bool
	active    *completion.Call
}

// NewManager creates a Manager with no persona loaded.
func NewManager(opts Options) *Manager {
	m := &Manager{
		kv:        opts.Store,
		settings:  opts.Settings,
		completer: opts.Completer,
		personas:  opts.Personas,
		now:       opts.Clock,
		logger:    opts.Logger,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.personas == nil {
		m.personas = persona.NewMemoryStore(persona.Seed())
	}
	m.logger = m.logger.With("component", "chat")
	return m
}

// Load replaces the in-memory state with the persisted state of personaID,
// cancelling any call of the previous persona. Missing or corrupt persisted
// data yields an empty, not-started conversation.
func (m *Manager) Load(personaID string) error {
	if _, ok := m.personas.FindByID(personaID); !ok {
		return fmt.Errorf("%w: %q", persona.ErrUnknownPersona, personaID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	m.personaID = personaID
	m.messages = m.readMessages(personaID)
	m.started = m.readStarted(personaID)

	m.logger.Debug("session_loaded", "persona", personaID, "messages", len(m.messages), "started", m.started)
	return nil
}

// Send appends text as a user message and requests a reply. The user
// message stays visible while the call runs. On failure it is removed and
// the failure returned; on cancellation it stays and a completion.ErrCancelled
// error is returned.
func (m *Manager) Send(ctx context.Context, text string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	m.mu.Lock()
	if m.personaID == "" {
		m.mu.Unlock()
		return chat.Message{}, ErrNoPersona
	}
	effective, err := m.settings.Effective(m.personaID)
	if err != nil {
		m.mu.Unlock()
		return chat.Message{}, err
	}

	m.stopLocked()
	m.started = true
	userMsg := m.newMessageLocked(chat.RoleUser, text)
	m.messages = append(m.messages, userMsg)
	call := completion.Start(ctx, m.completer, effective.Prompt, text)
	m.active = call
	m.persistLocked()
	m.mu.Unlock()

	reply, err := call.Result()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != call {
		return chat.Message{}, errSuperseded
	}
	m.active = nil

	switch {
	case err == nil:
		assistant := m.newMessageLocked(chat.RoleAssistant, reply)
		m.messages = append(m.messages, assistant)
		m.persistLocked()
		return assistant, nil
	case errors.Is(err, completion.ErrCancelled):
		return chat.Message{}, err
	default:
		m.removeLocked(userMsg.ID)
		m.persistLocked()
		m.logger.Warn("send_failed", "persona", m.personaID, "error", err)
		return chat.Message{}, err
	}
}

// Regenerate discards the answer to the most recent user message (and any
// assistant message after it) and requests a new one. The user message is
// kept whatever the outcome.
func (m *Manager) Regenerate(ctx context.Context) (chat.Message, error) {
	m.mu.Lock()
	if m.personaID == "" {
		m.mu.Unlock()
		return chat.Message{}, ErrNoPersona
	}

	idx := chat.LastUserIndex(m.messages)
	if idx < 0 {
		m.mu.Unlock()
		return chat.Message{}, ErrNothingToRegenerate
	}
	target := m.messages[idx]

	effective, err := m.settings.Effective(m.personaID)
	if err != nil {
		m.mu.Unlock()
		return chat.Message{}, err
	}

	m.stopLocked()
	kept := make([]chat.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if msg.Role != chat.RoleAssistant || msg.Timestamp < target.Timestamp {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	call := completion.Start(ctx, m.completer, effective.Prompt, target.Content)
	m.active = call
	m.persistLocked()
	m.mu.Unlock()

	reply, err := call.Result()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != call {
		return chat.Message{}, errSuperseded
	}
	m.active = nil

	if err != nil {
		if !errors.Is(err, completion.ErrCancelled) {
			m.logger.Warn("regenerate_failed", "persona", m.personaID, "error", err)
		}
		return chat.Message{}, err
	}

	assistant := m.newMessageLocked(chat.RoleAssistant, reply)
	m.messages = append(m.messages, assistant)
	m.persistLocked()
	return assistant, nil
}

// Stop cancels the in-flight call, if any.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Clear stops any call, empties the conversation and resets the started flag.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	m.messages = nil
	m.started = false
	if m.personaID != "" {
		m.persistLocked()
	}
}

// Messages returns a copy of the conversation.
func (m *Manager) Messages() []chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chat.Message(nil), m.messages...)
}

// HasStarted reports whether an exchange has happened since the last clear.
func (m *Manager) HasStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// IsLoading reports whether a call is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// PersonaID returns the loaded persona, or "".
func (m *Manager) PersonaID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.personaID
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() chat.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return chat.Session{
		PersonaID:  m.personaID,
		Messages:   append([]chat.Message(nil), m.messages...),
		HasStarted: m.started,
		Loading:    m.active != nil,
	}
}

// Settings returns the effective settings of the loaded persona.
func (m *Manager) Settings() (persona.Settings, error) {
	id := m.PersonaID()
	if id == "" {
		return persona.Settings{}, ErrNoPersona
	}
	return m.settings.Effective(id)
}

// Intro returns the intro text of the loaded persona.
func (m *Manager) Intro() string {
	p, _ := m.personas.FindByID(m.PersonaID())
	return p.Intro
}

func (m *Manager) stopLocked() {
	if m.active == nil {
		return
	}
	m.active.Cancel()
	m.active = nil
	m.logger.Debug("call_cancelled", "persona", m.personaID)
}

func (m *Manager) newMessageLocked(role chat.Role, content string) chat.Message {
	ts := m.now().UnixMilli()
	if n := len(m.messages); n > 0 && ts <= m.messages[n-1].Timestamp {
		ts = m.messages[n-1].Timestamp + 1
	}
	return chat.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}
}

func (m *Manager) removeLocked(id string) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].ID == id {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			return
		}
	}
}

// persistLocked writes the conversation and started flag after an
// in-memory mutation. Write failures are logged only.
func (m *Manager) persistLocked() {
	messages := m.messages
	if messages == nil {
		messages = []chat.Message{}
	}

	data, err := json.Marshal(messages)
	if err != nil {
		m.logger.Error("persist_encode_failed", "persona", m.personaID, "error", err)
		return
	}
	if err := m.kv.Set(storage.MessagesKey(m.personaID), string(data)); err != nil {
		m.logger.Error("persist_messages_failed", "persona", m.personaID, "error", err)
	}

	started, _ := json.Marshal(m.started)
	if err := m.kv.Set(storage.StartedKey(m.personaID), string(started)); err != nil {
		m.logger.Error("persist_started_failed", "persona", m.personaID, "error", err)
	}
}

func (m *Manager) readMessages(personaID string) []chat.Message {
	raw, ok, err := m.kv.Get(storage.MessagesKey(personaID))
	if err != nil {
		m.logger.Warn("load_messages_failed", "persona", personaID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var messages []chat.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		m.logger.Warn("parse_messages_failed", "persona", personaID, "error", err)
		return nil
	}
	return messages
}

func (m *Manager) readStarted(personaID string) bool {
	raw, ok, err := m.kv.Get(storage.StartedKey(personaID))
	if err != nil || !ok {
		return false
	}

	var started bool
	if err := json.Unmarshal([]byte(raw), &started); err != nil {
		m.logger.Warn("parse_started_failed", "persona", personaID, "error", err)
		return false
	}
	return started
}
