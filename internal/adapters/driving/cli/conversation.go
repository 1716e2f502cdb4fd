package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

const timeLayout = "2006-01-02 15:04"

var conversationCmd = &cobra.Command{
	Use:     "conversation",
	Aliases: []string{"conv"},
	Short:   "Manage stored conversations",
	RunE:    runConversationList,
}

var conversationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runConversationList,
}

var conversationShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationShow,
}

var conversationDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationDelete,
}

var conversationSuggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "List recipes suggested in past answers",
	Args:  cobra.NoArgs,
	RunE:  runConversationSuggestions,
}

func init() {
	conversationCmd.AddCommand(conversationListCmd)
	conversationCmd.AddCommand(conversationShowCmd)
	conversationCmd.AddCommand(conversationDeleteCmd)
	conversationCmd.AddCommand(conversationSuggestionsCmd)
	rootCmd.AddCommand(conversationCmd)
}

func conversationService(cmd *cobra.Command) (driving.ConversationService, error) {
	svc, err := getServices()
	if err != nil {
		return nil, err
	}
	conversations, err := svc.Conversations(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("open conversation store: %w", err)
	}
	return conversations, nil
}

func runConversationList(cmd *cobra.Command, _ []string) error {
	conversations, err := conversationService(cmd)
	if err != nil {
		return err
	}

	list, err := conversations.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(list) == 0 {
		cmd.Println("No conversations yet.")
		return nil
	}

	for _, c := range list {
		title := c.Title
		if title == "" {
			title = domain.DefaultConversationTitle
		}
		cmd.Printf("  %s  %s  %s\n", c.ID, c.UpdatedAt.Format(timeLayout), title)
	}
	return nil
}

func runConversationShow(cmd *cobra.Command, args []string) error {
	conversations, err := conversationService(cmd)
	if err != nil {
		return err
	}

	conv, turns, err := conversations.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get conversation: %w", err)
	}

	cmd.Printf("%s (%s)\n\n", conv.Title, conv.CreatedAt.Format(timeLayout))
	for _, t := range turns {
		switch t.Role {
		case domain.RoleUser:
			cmd.Printf("Vous : %s\n", t.Content)
		case domain.RoleAssistant:
			cmd.Printf("NutriGénie : %s\n", t.Content)
			if t.Latency > 0 {
				cmd.Printf("  (%s)\n", t.Latency.Round(time.Millisecond))
			}
		default:
			continue
		}
		cmd.Println()
	}
	return nil
}

func runConversationDelete(cmd *cobra.Command, args []string) error {
	conversations, err := conversationService(cmd)
	if err != nil {
		return err
	}

	if err := conversations.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	cmd.Printf("Deleted conversation %s.\n", args[0])
	return nil
}

func runConversationSuggestions(cmd *cobra.Command, _ []string) error {
	conversations, err := conversationService(cmd)
	if err != nil {
		return err
	}

	suggestions, err := conversations.Suggestions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list suggestions: %w", err)
	}
	if len(suggestions) == 0 {
		cmd.Println("No suggestions yet.")
		return nil
	}
	for _, s := range suggestions {
		cmd.Printf("  - %s\n", s)
	}
	return nil
}
