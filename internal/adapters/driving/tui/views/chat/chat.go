// Package chat provides the conversation view of the TUI: a scrolling
// transcript, the message input and a status bar.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/components/input"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/components/status"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/keymap"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/messages"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui/styles"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

// eventBuffer is the number of stream events queued ahead of the UI.
const eventBuffer = 64

type entry struct {
	role   domain.Role
	text   string
	notice bool
}

// View is the chat view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.MessageInput
	viewport  viewport.Model
	statusbar *status.Bar

	chat   driving.ChatService
	ctx    context.Context
	pacing time.Duration

	conversationID string
	title          string
	transcript     []entry

	// State of the running turn.
	busy      bool
	streaming string
	pending   []string
	ticking   bool
	completed *messages.TurnCompleted
	events    <-chan tea.Msg

	width  int
	height int
}

// NewView creates a chat view. pacing is the delay between displayed
// chunks; zero shows chunks as they arrive.
func NewView(s *styles.Styles, km *keymap.KeyMap, chat driving.ChatService, pacing time.Duration) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		input:     input.NewMessageInput(s),
		viewport:  viewport.New(80, 18),
		statusbar: status.NewBar(s, km.ChatHelp()),
		chat:      chat,
		ctx:       context.Background(),
		pacing:    pacing,
		width:     80,
		height:    24,
	}
	v.refresh()
	return v
}

// WithContext sets the context turns run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.StreamEventReceived:
		cmd := v.handleEvent(msg.Event)
		return v, tea.Batch(cmd, waitForEvent(v.events))

	case messages.PaceTick:
		return v, v.releaseChunk()

	case messages.TurnCompleted:
		v.events = nil
		if msg.Err == nil && len(v.pending) > 0 {
			v.completed = &msg
			return v, nil
		}
		v.finish(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Send):
		if v.busy {
			return v, nil
		}
		query := strings.TrimSpace(v.input.Value())
		if query == "" {
			return v, nil
		}
		v.input.Reset()
		v.transcript = append(v.transcript, entry{role: domain.RoleUser, text: query})
		v.busy = true
		v.statusbar.SetState(status.StateThinking, "")
		v.refresh()
		return v, v.startTurn(query)

	case keymap.Matches(msg.String(), v.keymap.ScrollUp),
		keymap.Matches(msg.String(), v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// startTurn runs the turn in the background and feeds its events back
// through a channel read one message at a time.
func (v *View) startTurn(query string) tea.Cmd {
	if v.chat == nil {
		v.busy = false
		v.statusbar.SetState(status.StateError, "chat indisponible")
		return nil
	}

	events := make(chan tea.Msg, eventBuffer)
	v.events = events

	ctx := v.ctx
	chat := v.chat
	req := domain.TurnRequest{ConversationID: v.conversationID, Query: query}

	go func() {
		defer close(events)
		send := func(msg tea.Msg) {
			select {
			case events <- msg:
			case <-ctx.Done():
			}
		}
		outcome, err := chat.Turn(ctx, req, func(ev driving.StreamEvent) {
			send(messages.StreamEventReceived{Event: ev})
		})
		send(messages.TurnCompleted{Outcome: outcome, Err: err})
	}()

	return waitForEvent(events)
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (v *View) handleEvent(ev driving.StreamEvent) tea.Cmd {
	switch ev.Kind {
	case driving.StreamChunk:
		v.statusbar.SetState(status.StateStreaming, "")
		if v.pacing <= 0 {
			v.streaming += ev.Text
			v.refresh()
			return nil
		}
		v.pending = append(v.pending, ev.Text)
		return v.scheduleTick()

	case driving.StreamRetry:
		// Text shown for the rate-limited attempt is discarded.
		v.streaming = ""
		v.pending = nil
		v.statusbar.SetState(status.StateRetrying,
			fmt.Sprintf("Limite de requêtes atteinte, nouvel essai dans %s", ev.Delay))
		v.refresh()

	case driving.StreamExhausted:
	}
	return nil
}

func (v *View) scheduleTick() tea.Cmd {
	if v.ticking {
		return nil
	}
	v.ticking = true
	return tea.Tick(v.pacing, func(time.Time) tea.Msg {
		return messages.PaceTick{}
	})
}

func (v *View) releaseChunk() tea.Cmd {
	v.ticking = false
	if len(v.pending) > 0 {
		v.streaming += v.pending[0]
		v.pending = v.pending[1:]
		v.refresh()
	}
	if len(v.pending) > 0 {
		return v.scheduleTick()
	}
	if v.completed != nil {
		v.finish(*v.completed)
	}
	return nil
}

func (v *View) finish(msg messages.TurnCompleted) {
	v.busy = false
	v.completed = nil
	v.pending = nil
	streamed := v.streaming
	v.streaming = ""

	if msg.Err != nil {
		v.transcript = append(v.transcript, entry{role: domain.RoleAssistant, text: msg.Err.Error(), notice: true})
		v.statusbar.SetState(status.StateError, msg.Err.Error())
		v.refresh()
		return
	}

	outcome := msg.Outcome
	if outcome.ConversationID != "" {
		v.conversationID = outcome.ConversationID
	}

	text := streamed
	answered := outcome.Status == domain.TurnAnswered
	if !answered || text == "" {
		text = outcome.Answer
	}
	v.transcript = append(v.transcript, entry{role: domain.RoleAssistant, text: text, notice: !answered})

	if len(outcome.Suggestions) > 0 {
		v.transcript = append(v.transcript, entry{
			role:   domain.RoleAssistant,
			text:   "Recettes ajoutées aux suggestions : " + strings.Join(outcome.Suggestions, ", "),
			notice: true,
		})
	}

	v.statusbar.SetState(status.StateReady, "")
	v.refresh()
}

// NewConversation clears the transcript. It is ignored while a turn runs.
func (v *View) NewConversation() {
	if v.busy {
		return
	}
	v.conversationID = ""
	v.title = ""
	v.transcript = nil
	v.statusbar.SetTitle("")
	v.statusbar.SetState(status.StateReady, "")
	v.refresh()
}

// SetConversation shows a stored conversation; new turns continue it.
func (v *View) SetConversation(conv domain.Conversation, turns []domain.ConversationTurn) {
	if v.busy {
		return
	}
	v.conversationID = conv.ID
	v.title = conv.Title
	v.transcript = v.transcript[:0]
	for _, t := range turns {
		if t.Role == domain.RoleSystem {
			continue
		}
		v.transcript = append(v.transcript, entry{role: t.Role, text: t.Content})
	}
	v.statusbar.SetTitle(conv.Title)
	v.statusbar.SetState(status.StateReady, "")
	v.refresh()
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.transcript) == 0 && !v.busy {
		return v.styles.Muted.Render("Bonjour ! Demandez-moi une idée de recette ou un conseil nutritionnel.")
	}

	wrap := lipgloss.NewStyle().Width(v.width - 2)
	blocks := make([]string, 0, len(v.transcript)+1)
	for _, e := range v.transcript {
		blocks = append(blocks, v.renderEntry(wrap, e))
	}
	if v.busy {
		text := v.streaming
		if text == "" {
			text = "…"
		}
		blocks = append(blocks, v.renderEntry(wrap, entry{role: domain.RoleAssistant, text: text}))
	}
	return strings.Join(blocks, "\n\n")
}

func (v *View) renderEntry(wrap lipgloss.Style, e entry) string {
	label := v.styles.AssistantLabel.Render("NutriGénie")
	if e.role == domain.RoleUser {
		label = v.styles.UserLabel.Render("Vous")
	}
	body := wrap.Render(e.text)
	if e.notice {
		body = v.styles.Warning.Render(body)
	}
	return label + "\n" + body
}

// View renders the chat view.
func (v *View) View() string {
	header := v.styles.Title.Render("NutriGénie")
	if v.title != "" {
		header += v.styles.Muted.Render(" · " + v.title)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		v.viewport.View(),
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sizes the transcript to fill the space left by the
// header, input and status bar.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)

	v.viewport.Width = width
	v.viewport.Height = height - 6
	if v.viewport.Height < 3 {
		v.viewport.Height = 3
	}
	v.refresh()
}

// ConversationID returns the conversation new turns are recorded in.
func (v *View) ConversationID() string {
	return v.conversationID
}

// Busy reports whether a turn is running.
func (v *View) Busy() bool {
	return v.busy
}

// Streaming returns the answer text shown so far for the running turn.
func (v *View) Streaming() string {
	return v.streaming
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// Transcript returns the rendered transcript text.
func (v *View) Transcript() string {
	return v.renderTranscript()
}
