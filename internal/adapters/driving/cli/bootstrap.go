package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Load the recipe dataset into the vector index",
	Long: `Reads the configured recipe dataset and inserts it into the vector index.

Nothing is inserted when the index already holds entries. Configure the
dataset with:
  nutrigenie settings set dataset.recipes /path/to/recipes.csv`,
	Args: cobra.NoArgs,
	RunE: runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	svc, err := getServices()
	if err != nil {
		return err
	}

	bootstrapper, err := svc.Bootstrapper(cmd.Context())
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}

	n, err := bootstrapper.Bootstrap(cmd.Context())
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	if n == 0 {
		cmd.Println("Vector index already populated.")
		return nil
	}
	cmd.Printf("Indexed %d recipes.\n", n)
	return nil
}
