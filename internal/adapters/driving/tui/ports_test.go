package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	TurnFunc func(ctx context.Context, req domain.TurnRequest, onEvent func(driving.StreamEvent)) (*domain.TurnOutcome, error)
}

func (m *MockChatService) Turn(
	ctx context.Context,
	req domain.TurnRequest,
	onEvent func(driving.StreamEvent),
) (*domain.TurnOutcome, error) {
	if m.TurnFunc != nil {
		return m.TurnFunc(ctx, req, onEvent)
	}
	return &domain.TurnOutcome{ConversationID: "conv", Status: domain.TurnAnswered, Answer: "ok"}, nil
}

func (m *MockChatService) Verdict(_ context.Context, _ string) (domain.SafetyVerdict, error) {
	return domain.SafetyVerdict{SupportedLanguage: true, Safe: true}, nil
}

// MockConversationService implements driving.ConversationService for testing.
type MockConversationService struct {
	ListFunc func(ctx context.Context) ([]domain.Conversation, error)
	GetFunc  func(ctx context.Context, id string) (domain.Conversation, []domain.ConversationTurn, error)
}

func (m *MockConversationService) List(ctx context.Context) ([]domain.Conversation, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockConversationService) Get(ctx context.Context, id string) (domain.Conversation, []domain.ConversationTurn, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return domain.Conversation{}, nil, domain.ErrNotFound
}

func (m *MockConversationService) Delete(_ context.Context, _ string) error {
	return nil
}

func (m *MockConversationService) Suggestions(_ context.Context) ([]string, error) {
	return nil, nil
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{name: "empty", ports: &Ports{}, want: ErrMissingChatService},
		{name: "missing conversations", ports: &Ports{Chat: &MockChatService{}}, want: ErrMissingConversationService},
		{
			name:  "complete",
			ports: &Ports{Chat: &MockChatService{}, Conversations: &MockConversationService{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
