// Package models contains data types and constants shared by the chat client.
package models

// Endpoint defaults
const (
	DefaultEndpoint = "http://localhost:3000/api/chat"
	ContentTypeJSON = "application/json"
)

// Conversation defaults
const (
	DefaultGreeting = "Hi! I'm your AI assistant. How can I help you today?"

	DefaultSystemInstruction = "You are a helpful customer support agent. " +
		"Be friendly, professional, and concise in your responses. " +
		"Always aim to solve the customer's problem efficiently."

	// FallbackReply is shown in place of a reply when a request fails
	FallbackReply = "Sorry, I encountered an error. Please try again."
)

// Response paths (gjson syntax)
const (
	PathReplyText = "content.0.text"
	PathContent   = "content"
)

// DefaultHeaders returns the headers sent with every completion request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": ContentTypeJSON,
		"Accept":       ContentTypeJSON,
		"User-Agent":   "supportchat/" + Version,
	}
}

// Version is the client version reported in the User-Agent header
var Version = "0.1.0"
