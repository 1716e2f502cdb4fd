package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

var (
	retrieveTopK int
	retrieveJSON bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Find the recipes most relevant to a query",
	Long: `Embeds the query and returns the nearest recipes from the vector index,
ranked by cosine similarity. This is the context the assistant receives.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", domain.DefaultTopK, "number of recipes to return")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	svc, err := getServices()
	if err != nil {
		return err
	}

	retriever, err := svc.Retrieval(cmd.Context())
	if err != nil {
		return fmt.Errorf("open retriever: %w", err)
	}

	hits, err := retriever.RetrieveScored(cmd.Context(), args[0], retrieveTopK)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return outputRetrieveJSON(cmd, hits)
	}
	return outputRetrieveTable(cmd, hits)
}

type recipeHit struct {
	Score  float64                  `json:"score"`
	Recipe domain.ReferenceDocument `json:"recipe"`
}

func outputRetrieveJSON(cmd *cobra.Command, hits []domain.VectorHit) error {
	out := make([]recipeHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, recipeHit{Score: h.Score, Recipe: h.Entry.Document})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrieveTable(cmd *cobra.Command, hits []domain.VectorHit) error {
	if len(hits) == 0 {
		cmd.Println("No recipes found.")
		return nil
	}

	for i := range hits {
		doc := hits[i].Entry.Document
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, doc.Title, hits[i].Score)
		if doc.PreparationTime != "" {
			cmd.Printf("      Préparation : %s\n", doc.PreparationTime)
		}
		if len(doc.DietTags) > 0 {
			cmd.Printf("      Régimes : %s\n", strings.Join(doc.DietTags, ", "))
		}
		if len(doc.Ingredients) > 0 {
			cmd.Printf("      Ingrédients : %s\n", strings.Join(doc.Ingredients, ", "))
		}
		cmd.Println()
	}
	return nil
}
