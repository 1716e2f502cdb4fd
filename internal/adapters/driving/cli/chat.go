package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

var (
	chatConversationID string
	chatNoPacing       bool
	chatTemperature    float64
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the nutrition assistant",
	Long: `Send a message to the nutrition assistant, or start an interactive session
when no message is given.

Each message is checked by the language guard and the safety classifier,
enriched with the most relevant recipes and answered by the language model.
Answers stream as they are generated.

Interactive commands:
  /new   - Start a new conversation
  /quit  - Leave the session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatConversationID, "conversation", "c", "", "continue an existing conversation")
	chatCmd.Flags().BoolVar(&chatNoPacing, "no-pacing", false, "print answers as fast as they arrive")
	chatCmd.Flags().Float64Var(&chatTemperature, "temperature", 0, "sampling temperature (default: the configured value)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	svc, err := getServices()
	if err != nil {
		return err
	}
	chat, err := svc.Chat(cmd.Context())
	if err != nil {
		return fmt.Errorf("start chat: %w", err)
	}

	pacing := time.Duration(0)
	if !chatNoPacing {
		if settings, err := svc.Settings().Get(); err == nil {
			pacing = settings.Chat.Pacing
		}
	}

	session := &chatSession{
		cmd:            cmd,
		chat:           chat,
		pacing:         pacing,
		conversationID: chatConversationID,
	}
	if cmd.Flags().Changed("temperature") {
		t := chatTemperature
		session.temperature = &t
	}

	if len(args) == 1 {
		return session.send(args[0])
	}
	return session.repl(cmd.InOrStdin())
}

// chatSession carries the conversation across interactive turns.
type chatSession struct {
	cmd            *cobra.Command
	chat           driving.ChatService
	pacing         time.Duration
	conversationID string
	temperature    *float64
}

func (s *chatSession) repl(in io.Reader) error {
	interactive := in == os.Stdin && term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		s.cmd.Println("NutriGénie. Tapez /quit pour quitter, /new pour une nouvelle conversation.")
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			s.cmd.Print("\n> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			s.conversationID = ""
			s.cmd.Println("Nouvelle conversation.")
			continue
		}

		if err := s.send(line); err != nil {
			return err
		}
		if err := s.cmd.Context().Err(); err != nil {
			return nil
		}
	}
}

func (s *chatSession) send(query string) error {
	ctx := s.cmd.Context()
	out := newChunkWriter(s.cmd.OutOrStdout(), s.pacing)

	outcome, err := s.chat.Turn(ctx, domain.TurnRequest{
		ConversationID: s.conversationID,
		Query:          query,
		Temperature:    s.temperature,
	}, func(ev driving.StreamEvent) {
		switch ev.Kind {
		case driving.StreamChunk:
			out.write(ctx, ev.Text)
		case driving.StreamRetry:
			out.reset()
			s.cmd.Printf("\n⏳ Limite de requêtes atteinte, nouvelle tentative dans %s (tentative %d)...\n",
				ev.Delay, ev.Attempt+1)
		case driving.StreamExhausted:
			out.reset()
		}
	})
	if err != nil {
		if out.written {
			s.cmd.Println()
		}
		return fmt.Errorf("chat turn failed: %w", err)
	}

	if outcome.Status != domain.TurnInjection {
		out.flush(ctx)
	}
	if outcome.ConversationID != "" {
		s.conversationID = outcome.ConversationID
	}
	printOutcome(s.cmd, outcome, out.written)
	return nil
}

// printOutcome finishes a turn. Streamed answers are already on screen;
// rejections, failures and flagged answers print their notice instead.
func printOutcome(cmd *cobra.Command, outcome *domain.TurnOutcome, streamed bool) {
	if streamed {
		cmd.Println()
	}
	if outcome.Status != domain.TurnAnswered || !streamed {
		cmd.Println(outcome.Answer)
	}
	if len(outcome.Suggestions) > 0 {
		cmd.Printf("\nRecettes ajoutées aux suggestions : %s\n", strings.Join(outcome.Suggestions, ", "))
	}
}

// chunkWriter prints streamed chunks at a steady pace.
// Text that may still turn out to be the injection sentinel is held back
// until it diverges from it or the turn ends.
type chunkWriter struct {
	w       io.Writer
	limiter *rate.Limiter
	written bool
	held    strings.Builder
}

func newChunkWriter(w io.Writer, pacing time.Duration) *chunkWriter {
	cw := &chunkWriter{w: w}
	if pacing > 0 {
		cw.limiter = rate.NewLimiter(rate.Every(pacing), 1)
	}
	return cw
}

func (c *chunkWriter) write(ctx context.Context, text string) {
	if !c.written {
		c.held.WriteString(text)
		if strings.HasPrefix(domain.InjectionSentinel, strings.TrimSpace(c.held.String())) {
			return
		}
		text = c.held.String()
		c.held.Reset()
	}
	c.print(ctx, text)
}

// flush prints held text once the turn is known not to be an injection.
func (c *chunkWriter) flush(ctx context.Context) {
	if c.held.Len() == 0 {
		return
	}
	text := c.held.String()
	c.held.Reset()
	c.print(ctx, text)
}

func (c *chunkWriter) print(ctx context.Context, text string) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}
	}
	fmt.Fprint(c.w, text)
	c.written = true
}

// reset marks the streamed text as superseded by a retry or a failure notice.
func (c *chunkWriter) reset() {
	if c.written {
		fmt.Fprintln(c.w)
	}
	c.written = false
	c.held.Reset()
}
