// Package conversations provides the TUI view listing stored conversations
// and the recipes suggested in them.
package conversations

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/components/list"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/components/status"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/keymap"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/messages"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/styles"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

// maxSuggestionsShown bounds the suggestion footer.
const maxSuggestionsShown = 5

// View lists conversations.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.ConversationList
	statusbar *status.Bar

	service driving.ConversationService
	ctx     context.Context

	suggestions []string
	err         error
	width       int
	height      int
}

// NewView creates a conversation list view.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.ConversationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:    s,
		keymap:    km,
		list:      list.NewConversationList(s),
		statusbar: status.NewBar(s, km.ListHelp()),
		service:   service,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the conversations.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	return func() tea.Msg {
		if v.service == nil {
			return messages.ConversationsLoaded{Err: ErrNoConversationService}
		}
		convs, err := v.service.List(v.ctx)
		if err != nil {
			return messages.ConversationsLoaded{Err: err}
		}
		suggestions, err := v.service.Suggestions(v.ctx)
		return messages.ConversationsLoaded{Conversations: convs, Suggestions: suggestions, Err: err}
	}
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.ConversationsLoaded:
		v.err = msg.Err
		if msg.Err != nil {
			v.statusbar.SetState(status.StateError, msg.Err.Error())
		} else {
			v.statusbar.SetState(status.StateReady, "")
		}
		v.list.SetConversations(msg.Conversations)
		v.suggestions = msg.Suggestions
		return v, nil

	case messages.ConversationDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.SetState(status.StateError, msg.Err.Error())
			return v, nil
		}
		return v, v.load()

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }

	case keymap.Matches(key, v.keymap.Open):
		selected := v.list.Selected()
		if selected == nil {
			return v, nil
		}
		id := selected.ID
		return v, func() tea.Msg { return messages.ConversationSelected{ID: id} }

	case keymap.Matches(key, v.keymap.Delete):
		selected := v.list.Selected()
		if selected == nil || v.service == nil {
			return v, nil
		}
		id := selected.ID
		return v, func() tea.Msg {
			return messages.ConversationDeleted{ID: id, Err: v.service.Delete(v.ctx, id)}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the list and the latest suggestions.
func (v *View) View() string {
	sections := []string{
		v.styles.Title.Render("Conversations"),
		"",
		v.list.View(),
	}

	if len(v.suggestions) > 0 {
		shown := v.suggestions
		if len(shown) > maxSuggestionsShown {
			shown = shown[len(shown)-maxSuggestionsShown:]
		}
		sections = append(sections, "",
			v.styles.Subtitle.Render("Recettes suggérées"),
			v.styles.Muted.Render("  "+strings.Join(shown, "\n  ")),
		)
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusbar.SetWidth(width)

	rows := height - 6 - maxSuggestionsShown - 2
	if rows < 3 {
		rows = 3
	}
	v.list.SetDimensions(width, rows)
}

// Count returns the number of listed conversations.
func (v *View) Count() int {
	return v.list.Count()
}

// Err returns the last load or delete error.
func (v *View) Err() error {
	return v.err
}
