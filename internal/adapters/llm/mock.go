package llm

import (
	"context"
	"fmt"

	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

// MockClient is a deterministic stand-in for the chat collaborator, used in
// local mode and tests.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Complete(_ context.Context, messages []domain.Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return fmt.Sprintf("I hear you. You asked: %q. Could you tell me more about what you would like to understand?", messages[i].Content), nil
		}
	}
	return "Hello, how can I help you understand your result?", nil
}
