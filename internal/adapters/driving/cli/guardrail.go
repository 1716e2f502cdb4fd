package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

var (
	guardrailLabel  string
	guardrailEpochs int
)

var guardrailCmd = &cobra.Command{
	Use:   "guardrail",
	Short: "Inspect and train the safety classifier",
	Long: `Commands for the language guard and the safety classifier that screen every
message before it reaches the language model.`,
}

var guardrailClassifyCmd = &cobra.Command{
	Use:   "classify [query]",
	Short: "Show the safety verdict for a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runGuardrailClassify,
}

var guardrailLearnCmd = &cobra.Command{
	Use:   "learn [query]",
	Short: "Teach the classifier one labelled query",
	Long: `Applies one online update to the safety classifier and saves it.

Labels: safe (0) or unsafe (1).`,
	Args: cobra.ExactArgs(1),
	RunE: runGuardrailLearn,
}

var guardrailTrainCmd = &cobra.Command{
	Use:   "train [file]",
	Short: "Train a new classifier from labelled examples",
	Long: `Fits a fresh safety classifier on a labelled dataset and replaces the saved
state. The file is a .csv or .xlsx table with a text column and a label
column holding 0 (safe) or 1 (unsafe).`,
	Args: cobra.ExactArgs(1),
	RunE: runGuardrailTrain,
}

var guardrailStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved classifier state",
	Args:  cobra.NoArgs,
	RunE:  runGuardrailStatus,
}

func init() {
	guardrailLearnCmd.Flags().StringVarP(&guardrailLabel, "label", "l", "unsafe", "label to learn: safe or unsafe")
	guardrailTrainCmd.Flags().IntVar(&guardrailEpochs, "epochs", 0, "training epochs (0 uses the default)")

	guardrailCmd.AddCommand(guardrailClassifyCmd)
	guardrailCmd.AddCommand(guardrailLearnCmd)
	guardrailCmd.AddCommand(guardrailTrainCmd)
	guardrailCmd.AddCommand(guardrailStatusCmd)
	rootCmd.AddCommand(guardrailCmd)
}

func runGuardrailClassify(cmd *cobra.Command, args []string) error {
	svc, err := getServices()
	if err != nil {
		return err
	}
	query := args[0]

	supported := svc.Language().IsSupported(query)
	cmd.Printf("Language supported: %s\n", yesNo(supported))

	safety, err := svc.Safety(cmd.Context())
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}
	score, err := safety.Score(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("classify failed: %w", err)
	}
	safe, err := safety.Predict(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("classify failed: %w", err)
	}

	verdict := domain.SafetyVerdict{SupportedLanguage: supported, Safe: safe}
	cmd.Printf("Unsafe score: %.3f\n", score)
	cmd.Printf("Safe: %s\n", yesNo(safe))
	if verdict.Allowed() {
		cmd.Println("Verdict: allowed")
	} else {
		cmd.Println("Verdict: rejected")
	}
	return nil
}

func runGuardrailLearn(cmd *cobra.Command, args []string) error {
	label, err := parseLabel(guardrailLabel)
	if err != nil {
		return err
	}

	svc, err := getServices()
	if err != nil {
		return err
	}
	safety, err := svc.Safety(cmd.Context())
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}

	if err := safety.IncrementalLearn(cmd.Context(), args[0], label); err != nil {
		return fmt.Errorf("learn failed: %w", err)
	}

	state := safety.State()
	cmd.Printf("Learned %q as %s (revision %d).\n", args[0], label, state.Revision)
	return nil
}

func runGuardrailTrain(cmd *cobra.Command, args []string) error {
	svc, err := getServices()
	if err != nil {
		return err
	}

	examples, err := svc.LabelledExamples(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("read examples: %w", err)
	}

	trainer, err := svc.Trainer(cmd.Context())
	if err != nil {
		return fmt.Errorf("prepare trainer: %w", err)
	}

	cmd.Printf("Training on %d examples...\n", len(examples))
	state, err := trainer.Train(cmd.Context(), examples, guardrailEpochs)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	cmd.Printf("Classifier saved (revision %d, %d dimensions, model %s).\n",
		state.Revision, state.Dimensions, state.EmbedderModel)
	return nil
}

func runGuardrailStatus(cmd *cobra.Command, _ []string) error {
	svc, err := getServices()
	if err != nil {
		return err
	}
	safety, err := svc.Safety(cmd.Context())
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}

	state := safety.State()
	if state == nil {
		cmd.Println("No classifier state.")
		return nil
	}

	cmd.Println("[Guardrail]")
	cmd.Printf("  Revision: %d\n", state.Revision)
	cmd.Printf("  Embedding model: %s\n", state.EmbedderModel)
	cmd.Printf("  Dimensions: %d\n", state.Dimensions)
	cmd.Printf("  Online updates: %d\n", state.Updates)
	if !state.UpdatedAt.IsZero() {
		cmd.Printf("  Updated: %s\n", state.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func parseLabel(s string) (domain.Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safe", "0":
		return domain.LabelSafe, nil
	case "unsafe", "1":
		return domain.LabelUnsafe, nil
	default:
		return 0, fmt.Errorf("%w: label must be safe or unsafe, got %q", domain.ErrInvalidInput, s)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
