package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, the vector index, the dataset and chat options.

Settings are stored in config.toml inside the application directory. API keys
are never stored there: they are read from the environment or a .env file
(MISTRAL_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY).`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a single setting",
	Long: `Validate and store one setting.

Keys:
  embedding.provider    hashing, ollama, mistral or openai
  embedding.model       embedding model name
  embedding.base_url    API endpoint override
  embedding.dimensions  vector size override
  embedding.cache_size  cached query embeddings (0 disables)
  llm.provider          mistral, ollama, openai or anthropic
  llm.model             chat model name
  llm.base_url          API endpoint override
  vector_index.backend  memory, sqlite or pgvector
  vector_index.dsn      PostgreSQL connection string for pgvector
  dataset.recipes       recipe table (.csv or .xlsx)
  dataset.embeddings    precomputed recipe embeddings
  guardrail.state_path  classifier state file
  guardrail.watch       reload the classifier when the file changes
  chat.temperature      sampling temperature (0 to 2)
  chat.top_k            recipes retrieved per message
  chat.pacing           delay between displayed chunks, e.g. 30ms`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration can start a chat",
	Args:  cobra.NoArgs,
	RunE:  runSettingsValidate,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to choose the AI providers, the vector index and the dataset.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func settingsService() (driving.SettingsService, error) {
	svc, err := getServices()
	if err != nil {
		return nil, err
	}
	settings := svc.Settings()
	if settings == nil {
		return nil, errors.New("settings service not configured")
	}
	return settings, nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.VectorIndex.Backend)
	if settings.VectorIndex.DSN != "" {
		cmd.Printf("  DSN: %s\n", maskDSN(settings.VectorIndex.DSN))
	}
	cmd.Println()

	cmd.Println("[Dataset]")
	cmd.Printf("  Recipes: %s\n", orNotSet(settings.Dataset.RecipesPath))
	cmd.Printf("  Embeddings: %s\n", orNotSet(settings.Dataset.EmbeddingsPath))
	cmd.Println()

	cmd.Println("[Guardrail]")
	cmd.Printf("  State: %s\n", orNotSet(settings.Guardrail.StatePath))
	cmd.Printf("  Watch: %s\n", yesNo(settings.Guardrail.Watch))
	cmd.Println()

	cmd.Println("[Chat]")
	cmd.Printf("  Temperature: %.2f\n", settings.Chat.Temperature)
	cmd.Printf("  Top K: %d\n", settings.Chat.TopK)
	cmd.Printf("  Pacing: %s\n", settings.Chat.Pacing)
	cmd.Println()

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'nutrigenie settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	if err := svc.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	if err := svc.Validate(); err != nil {
		return err
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("NutriGénie Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	if err := configureProvider(cmd, reader, svc, "embedding",
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels(), settings.Embedding.Provider); err != nil {
		return err
	}

	cmd.Println("Step 2: LLM Provider")
	cmd.Println("--------------------")
	if err := configureProvider(cmd, reader, svc, "llm",
		domain.AllLLMProviders(), domain.DefaultLLMModels(), settings.LLM.Provider); err != nil {
		return err
	}

	cmd.Println("Step 3: Vector Index")
	cmd.Println("--------------------")
	backends := []domain.VectorBackend{domain.VectorBackendSQLite, domain.VectorBackendMemory, domain.VectorBackendPgvector}
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b)
	}
	cmd.Print("\nEnter choice [1]: ")
	backend := backends[parseChoice(readLine(reader), len(backends), 1)-1]
	if err := svc.Set("vector_index.backend", backend.String()); err != nil {
		return fmt.Errorf("failed to set vector backend: %w", err)
	}
	if backend == domain.VectorBackendPgvector {
		cmd.Print("Enter PostgreSQL DSN: ")
		if dsn := readLine(reader); dsn != "" {
			if err := svc.Set("vector_index.dsn", dsn); err != nil {
				return fmt.Errorf("failed to set DSN: %w", err)
			}
		}
	}
	cmd.Println()

	cmd.Println("Step 4: Recipe Dataset")
	cmd.Println("----------------------")
	cmd.Printf("Enter recipe file path [%s]: ", orNotSet(settings.Dataset.RecipesPath))
	if path := readLine(reader); path != "" {
		if err := svc.Set("dataset.recipes", path); err != nil {
			return fmt.Errorf("failed to set dataset: %w", err)
		}
	}
	cmd.Println()

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	return nil
}

// configureProvider asks for a provider and model and stores them under prefix.
func configureProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	svc driving.SettingsService,
	prefix string,
	providers []domain.AIProvider,
	models map[domain.AIProvider]string,
	current domain.AIProvider,
) error {
	defaultIdx := 1
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
		if p == current {
			defaultIdx = i + 1
		}
	}
	cmd.Printf("\nEnter choice [%d]: ", defaultIdx)
	provider := providers[parseChoice(readLine(reader), len(providers), defaultIdx)-1]

	defaultModel := models[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	if err := svc.Set(prefix+".provider", provider.String()); err != nil {
		return fmt.Errorf("failed to set %s provider: %w", prefix, err)
	}
	if err := svc.Set(prefix+".model", model); err != nil {
		return fmt.Errorf("failed to set %s model: %w", prefix, err)
	}

	if provider.RequiresAPIKey() {
		cmd.Printf("Export %s or add it to a .env file.\n", provider.APIKeyEnv())
	}
	if err := pingProvider(cmd, svc, prefix); err != nil {
		return err
	}

	cmd.Printf("%s provider configured: %s (%s)\n\n", strings.ToUpper(prefix), provider.Description(), model)
	return nil
}

// pingProvider checks connectivity when the settings service can.
func pingProvider(cmd *cobra.Command, svc driving.SettingsService, prefix string) error {
	var check func() error
	switch prefix {
	case "embedding":
		if v, ok := svc.(interface{ ValidateEmbeddingConfig() error }); ok {
			check = v.ValidateEmbeddingConfig
		}
	case "llm":
		if v, ok := svc.(interface{ ValidateLLMConfig() error }); ok {
			check = v.ValidateLLMConfig
		}
	}
	if check == nil {
		return nil
	}

	cmd.Print("Validating configuration... ")
	if err := check(); err != nil {
		if errors.Is(err, domain.ErrMissingAPIKey) {
			cmd.Println("skipped (no API key)")
			return nil
		}
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", prefix, err)
	}
	cmd.Println("OK")
	return nil
}

// Helper functions.

func readLine(reader *bufio.Reader) string {
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key == "" {
		cmd.Printf("  API Key: (not set, export %s)\n", provider.APIKeyEnv())
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(key))
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password of a URL-style connection string.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		creds = creds[:colon] + ":****"
	}
	return dsn[:scheme+3] + creds + dsn[at:]
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
