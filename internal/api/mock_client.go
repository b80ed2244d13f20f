package api

import (
	"context"
	"sync"

	"github.com/diogo/supportchat/internal/models"
)

// MockChatClient is a mock implementation of ChatClientInterface for testing
type MockChatClient struct {
	// Mock return values
	Reply       string
	Err         error
	EndpointVal string

	// Call counters/recorders
	mu            sync.Mutex
	CompleteCalls int
	LastMessages  []models.Message
	CloseCalled   bool
}

// Ensure MockChatClient implements ChatClientInterface
var _ ChatClientInterface = (*MockChatClient)(nil)

func (m *MockChatClient) Complete(ctx context.Context, messages []models.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls++
	m.LastMessages = append([]models.Message(nil), messages...)
	return m.Reply, m.Err
}

func (m *MockChatClient) Endpoint() string {
	if m.EndpointVal == "" {
		return models.DefaultEndpoint
	}
	return m.EndpointVal
}

func (m *MockChatClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
}

// Calls returns the number of Complete calls so far
func (m *MockChatClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CompleteCalls
}
