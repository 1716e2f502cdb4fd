package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal interface for NutriGénie.

Controls:
  Enter     - Send message / Open conversation
  Tab       - Conversation history
  Ctrl+N    - New conversation
  PgUp/PgDn - Scroll the transcript
  d         - Delete conversation (history)
  Esc       - Back
  Ctrl+C    - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports, err := tuiPorts(cmd)
	if err != nil {
		return err
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func tuiPorts(cmd *cobra.Command) (*tui.Ports, error) {
	svc, err := getServices()
	if err != nil {
		return nil, err
	}

	chat, err := svc.Chat(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("start chat: %w", err)
	}
	conversations, err := svc.Conversations(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("open conversation store: %w", err)
	}

	ports := &tui.Ports{Chat: chat, Conversations: conversations}
	if settings, err := svc.Settings().Get(); err == nil {
		ports.Pacing = settings.Chat.Pacing
	}
	return ports, nil
}
