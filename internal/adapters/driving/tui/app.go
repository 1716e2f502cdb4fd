package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/keymap"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/messages"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/styles"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/views/chat"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/views/conversations"
)

// App is the root TUI model. It routes messages between the chat view and
// the conversation list.
type App struct {
	ports  *Ports
	ctx    context.Context
	keymap *keymap.KeyMap

	chatView          *chat.View
	conversationsView *conversations.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:             ports,
		ctx:               context.Background(),
		keymap:            km,
		chatView:          chat.NewView(s, km, ports.Chat, ports.Pacing),
		conversationsView: conversations.NewView(s, km, ports.Conversations),
		currentView:       messages.ViewChat,
	}, nil
}

// WithContext sets the context turns and lookups run under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.conversationsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("NutriGénie"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.chatView.SetDimensions(msg.Width, msg.Height)
		a.conversationsView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewConversations {
			return a, a.conversationsView.Init()
		}
		return a, nil

	case messages.ConversationSelected:
		return a, a.loadConversation(msg.ID)

	case messages.ConversationLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.chatView.SetConversation(msg.Conversation, msg.Turns)
		a.currentView = messages.ViewChat
		return a, nil

	case messages.ConversationsLoaded, messages.ConversationDeleted:
		a.conversationsView, cmd = a.conversationsView.Update(msg)
		return a, cmd

	case messages.StreamEventReceived, messages.TurnCompleted, messages.PaceTick:
		// Turns keep running while the list is shown.
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	if a.currentView == messages.ViewChat {
		a.chatView, cmd = a.chatView.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if keymap.Matches(key, a.keymap.Quit) {
		return a, tea.Quit
	}

	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewChat:
		switch {
		case keymap.Matches(key, a.keymap.History):
			a.currentView = messages.ViewConversations
			return a, a.conversationsView.Init()
		case keymap.Matches(key, a.keymap.NewConversation):
			a.chatView.NewConversation()
			return a, nil
		}
		a.chatView, cmd = a.chatView.Update(msg)

	case messages.ViewConversations:
		a.conversationsView, cmd = a.conversationsView.Update(msg)
	}
	return a, cmd
}

func (a *App) loadConversation(id string) tea.Cmd {
	return func() tea.Msg {
		conv, turns, err := a.ports.Conversations.Get(a.ctx, id)
		return messages.ConversationLoaded{Conversation: conv, Turns: turns, Err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.currentView == messages.ViewConversations {
		return a.conversationsView.View()
	}
	return a.chatView.View()
}

// Run starts the TUI in the alternate screen and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// ChatView returns the chat view.
func (a *App) ChatView() *chat.View {
	return a.chatView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its first window size.
func (a *App) Ready() bool {
	return a.ready
}
