package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/messages"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

func newTestApp(t *testing.T, conversations *MockConversationService) *App {
	t.Helper()
	if conversations == nil {
		conversations = &MockConversationService{}
	}
	app, err := NewApp(&Ports{Chat: &MockChatService{}, Conversations: conversations})
	require.NoError(t, err)
	app.WithContext(context.Background())
	return app
}

func update(t *testing.T, app *App, msg tea.Msg) (*App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	updated, ok := model.(*App)
	require.True(t, ok)
	return updated, cmd
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})
	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingChatService)
}

func TestApp_InitialState(t *testing.T) {
	app := newTestApp(t, nil)

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app := newTestApp(t, nil)

	app, cmd := update(t, app, tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "NutriGénie")
}

func TestApp_QuitKey(t *testing.T) {
	app := newTestApp(t, nil)

	_, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, nil)

	_, cmd := update(t, app, messages.Quit{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_SwitchToConversationsAndBack(t *testing.T) {
	conversations := &MockConversationService{
		ListFunc: func(context.Context) ([]domain.Conversation, error) {
			return []domain.Conversation{{ID: "c1", Title: "Menu de la semaine"}}, nil
		},
	}
	app := newTestApp(t, conversations)
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 100, Height: 40})

	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, messages.ViewConversations, app.CurrentView())
	require.NotNil(t, cmd)

	app, _ = update(t, app, cmd())
	assert.Contains(t, app.View(), "Menu de la semaine")

	app, cmd = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app, _ = update(t, app, cmd())
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_OpenConversation(t *testing.T) {
	conversations := &MockConversationService{
		GetFunc: func(_ context.Context, id string) (domain.Conversation, []domain.ConversationTurn, error) {
			return domain.Conversation{ID: id, Title: "Brunch"},
				[]domain.ConversationTurn{
					{Role: domain.RoleUser, Content: "Idée de brunch ?"},
					{Role: domain.RoleAssistant, Content: "Des pancakes à l'avoine."},
				}, nil
		},
	}
	app := newTestApp(t, conversations)
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 100, Height: 40})
	app.currentView = messages.ViewConversations

	app, cmd := update(t, app, messages.ConversationSelected{ID: "c7"})
	require.NotNil(t, cmd)
	app, _ = update(t, app, cmd())

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, "c7", app.ChatView().ConversationID())
	assert.Contains(t, app.ChatView().Transcript(), "pancakes")
}

func TestApp_OpenConversationError(t *testing.T) {
	app := newTestApp(t, nil)

	app, cmd := update(t, app, messages.ConversationSelected{ID: "missing"})
	app, _ = update(t, app, cmd())

	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
}

func TestApp_NewConversationKey(t *testing.T) {
	app := newTestApp(t, nil)
	app.ChatView().SetConversation(domain.Conversation{ID: "c1"}, nil)

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Empty(t, app.ChatView().ConversationID())
}

func TestApp_StreamMessagesReachChatInAnyView(t *testing.T) {
	app := newTestApp(t, nil)
	app.currentView = messages.ViewConversations

	app, _ = update(t, app, messages.TurnCompleted{
		Outcome: &domain.TurnOutcome{ConversationID: "c2", Status: domain.TurnAnswered, Answer: "Bonne idée."},
	})

	assert.Equal(t, "c2", app.ChatView().ConversationID())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, nil)
	app, _ = update(t, app, messages.ErrorOccurred{Err: domain.ErrLLMUnavailable})
	assert.ErrorIs(t, app.Err(), domain.ErrLLMUnavailable)
}
