// Package chat holds the conversation state of a chat widget and the
// pipeline that turns a draft into one request/response exchange.
package chat

import (
	"strings"
	"sync"

	"github.com/diogo/supportchat/internal/models"
)

// Store is the single source of truth for one widget instance: the
// conversation, the draft, the loading flag, the system instruction and the
// settings panel visibility.
//
// The conversation always starts with the greeting and never contains a
// system-role message; the instruction lives in its own field and is only
// injected when a request is built.
type Store struct {
	mu sync.RWMutex

	greeting        string
	messages        []models.Message
	draft           string
	loading         bool
	instruction     string
	settingsVisible bool

	// revision is bumped by every mutation so views know to re-render
	revision uint64
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithGreeting overrides the opening assistant message
func WithGreeting(text string) StoreOption {
	return func(s *Store) {
		s.greeting = text
	}
}

// WithSystemInstruction sets the initial system instruction
func WithSystemInstruction(text string) StoreOption {
	return func(s *Store) {
		s.instruction = text
	}
}

// NewStore creates a store holding only the greeting
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		greeting:    models.DefaultGreeting,
		instruction: models.DefaultSystemInstruction,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.messages = []models.Message{s.greetingMessage()}
	return s
}

func (s *Store) greetingMessage() models.Message {
	return models.NewAssistantMessage(s.greeting)
}

// Append adds msg at the end of the conversation
func (s *Store) Append(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.revision++
}

// Reset replaces the conversation with the greeting alone.
// Draft and system instruction are left as they are.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []models.Message{s.greetingMessage()}
	s.revision++
}

// SetSystemInstruction replaces the instruction verbatim. It takes effect on
// the next request.
func (s *Store) SetSystemInstruction(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instruction = text
	s.revision++
}

// SetDraft replaces the pending input text
func (s *Store) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
	s.revision++
}

// ClearDraft empties the pending input text
func (s *Store) ClearDraft() {
	s.SetDraft("")
}

// ToggleSettings flips the settings panel visibility
func (s *Store) ToggleSettings() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settingsVisible = !s.settingsVisible
	s.revision++
}

// SetSettingsVisible shows or hides the settings panel
func (s *Store) SetSettingsVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settingsVisible = visible
	s.revision++
}

// Messages returns a copy of the conversation
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyMessages()
}

func (s *Store) copyMessages() []models.Message {
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the conversation
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Draft returns the pending input text
func (s *Store) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// Loading reports whether a request is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SystemInstruction returns the current instruction
func (s *Store) SystemInstruction() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instruction
}

// SettingsVisible reports whether the settings panel is open
func (s *Store) SettingsVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settingsVisible
}

// Greeting returns the opening assistant text
func (s *Store) Greeting() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.greeting
}

// Revision returns a counter that changes after every mutation
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// LastReply returns the content of the most recent assistant message
func (s *Store) LastReply() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == models.RoleAssistant {
			return s.messages[i].Content, true
		}
	}
	return "", false
}

// beginSend is the loading gate. When the draft is blank or a request is
// already in flight it changes nothing and returns ok=false. Otherwise it
// appends the raw draft as a user message, clears the draft, raises the
// loading flag and returns the conversation as it was before and after the
// append, together with the instruction in effect.
func (s *Store) beginSend(draft string) (before, after []models.Message, instruction string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(draft) == "" || s.loading {
		return nil, nil, "", false
	}

	before = s.copyMessages()
	s.messages = append(s.messages, models.NewUserMessage(draft))
	after = s.copyMessages()

	s.draft = ""
	s.loading = true
	s.revision++

	return before, after, s.instruction, true
}

// endSend appends the settled reply and lowers the loading flag. The flag is
// cleared even if the append panics.
func (s *Store) endSend(reply models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		s.loading = false
		s.revision++
	}()
	s.messages = append(s.messages, reply)
}
