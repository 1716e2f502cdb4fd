package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var titleRecipes bool

var titleCmd = &cobra.Command{
	Use:   "title [text]",
	Short: "Summarise text as a conversation title",
	Long: `Asks the language model for a short title (at most 30 characters).

With --recipes, lists the recipe titles mentioned in the text instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runTitle,
}

func init() {
	titleCmd.Flags().BoolVar(&titleRecipes, "recipes", false, "extract recipe titles instead")
	rootCmd.AddCommand(titleCmd)
}

func runTitle(cmd *cobra.Command, args []string) error {
	svc, err := getServices()
	if err != nil {
		return err
	}
	titles, err := svc.Titles(cmd.Context())
	if err != nil {
		return fmt.Errorf("open title service: %w", err)
	}

	if !titleRecipes {
		title, err := titles.SummarizeTitle(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("summarise failed: %w", err)
		}
		cmd.Println(title)
		return nil
	}

	recipes, err := titles.ExtractRecipeTitles(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}
	if len(recipes) == 0 {
		cmd.Println("No recipes mentioned.")
		return nil
	}
	for _, r := range recipes {
		cmd.Printf("  - %s\n", r)
	}
	return nil
}
