// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/styles"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// dateLayout formats the last-used time of a conversation.
const dateLayout = "02/01 15:04"

// ConversationList displays stored conversations in a navigable list.
type ConversationList struct {
	conversations []domain.Conversation
	selected      int
	styles        *styles.Styles
	width         int
	height        int
}

// NewConversationList creates a new conversation list component.
func NewConversationList(s *styles.Styles) *ConversationList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ConversationList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation keys.
func (l *ConversationList) Update(msg tea.Msg) (*ConversationList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the visible window of the list.
func (l *ConversationList) View() string {
	if len(l.conversations) == 0 {
		return l.styles.Muted.Render("Aucune conversation")
	}

	visible := l.height
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.conversations) {
		end = len(l.conversations)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(i))
	}
	return strings.Join(lines, "\n")
}

func (l *ConversationList) renderRow(index int) string {
	c := l.conversations[index]

	title := c.Title
	if title == "" {
		title = domain.DefaultConversationTitle
	}
	maxTitle := l.width - len(dateLayout) - 6
	if maxTitle < 10 {
		maxTitle = 10
	}
	if runes := []rune(title); len(runes) > maxTitle {
		title = string(runes[:maxTitle-3]) + "..."
	}

	date := c.UpdatedAt.Local().Format(dateLayout)
	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", maxTitle, title, date))
	}
	return l.styles.Normal.Render(fmt.Sprintf("  %-*s  ", maxTitle, title)) + l.styles.Muted.Render(date)
}

// SetConversations replaces the list, keeping the selection in range.
func (l *ConversationList) SetConversations(conversations []domain.Conversation) {
	l.conversations = conversations
	if l.selected >= len(conversations) {
		l.selected = len(conversations) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// Selected returns the selected conversation, or nil if the list is empty.
func (l *ConversationList) Selected() *domain.Conversation {
	if len(l.conversations) == 0 {
		return nil
	}
	return &l.conversations[l.selected]
}

// SelectedIndex returns the index of the selected conversation.
func (l *ConversationList) SelectedIndex() int {
	return l.selected
}

// MoveUp moves selection up.
func (l *ConversationList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ConversationList) MoveDown() {
	if l.selected < len(l.conversations)-1 {
		l.selected++
	}
}

// SetDimensions sets the width and the number of visible rows.
func (l *ConversationList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of conversations.
func (l *ConversationList) Count() int {
	return len(l.conversations)
}
