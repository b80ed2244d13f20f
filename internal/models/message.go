package models

// Role identifies who authored a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is a single chat turn. Values are never edited after creation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user-role message
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewSystemMessage creates a system-role message
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// GreetingMessage returns the default assistant greeting that opens every conversation
func GreetingMessage() Message {
	return NewAssistantMessage(DefaultGreeting)
}

// ChatRequest is the outbound body sent to the completion endpoint
type ChatRequest struct {
	Messages []Message `json:"messages"`
}
