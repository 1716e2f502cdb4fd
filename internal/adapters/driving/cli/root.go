// Package cli implements the nutrigenie command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services resolves the application services the commands run against.
// Services are built on demand, so commands that never reach the language
// model work without an API key.
type Services interface {
	Settings() driving.SettingsService
	Language() driving.LanguageService
	Chat(ctx context.Context) (driving.ChatService, error)
	Conversations(ctx context.Context) (driving.ConversationService, error)
	Retrieval(ctx context.Context) (driving.RetrievalService, error)
	Bootstrapper(ctx context.Context) (driving.Bootstrapper, error)
	Safety(ctx context.Context) (driving.SafetyService, error)
	Titles(ctx context.Context) (driving.TitleService, error)
	Trainer(ctx context.Context) (driving.GuardrailTrainer, error)
	LabelledExamples(ctx context.Context, path string) ([]domain.LabelledExample, error)
	Close() error
}

// ServiceOptions carries the global flags that shape service construction.
type ServiceOptions struct {
	// ConfigDir is the application directory. Empty means ~/.nutrigenie.
	ConfigDir string

	// EnvFiles are dotenv files loaded before reading API keys.
	// Nil means the default locations.
	EnvFiles []string
}

// ServiceFactory builds Services for the current invocation.
type ServiceFactory func(opts ServiceOptions) (Services, error)

var (
	services       Services
	serviceFactory ServiceFactory

	verbose   bool
	configDir string
	envFiles  []string
)

var rootCmd = &cobra.Command{
	Use:   "nutrigenie",
	Short: "Nutrition assistant grounded in a recipe database",
	Long: `NutriGénie answers nutrition and cooking questions using recipes retrieved
from a local reference dataset.

Every message is screened by a language guard and a safety classifier before
it reaches the language model. Conversations are stored locally.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "application directory (default ~/.nutrigenie)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load API keys from")
}

// SetServices sets the services used by all commands.
func SetServices(s Services) {
	services = s
}

// SetServiceFactory sets the factory used to build services on first use.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

// Execute runs the root command and releases any services it built.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if closeErr := closeServices(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// getServices returns the configured services, building them on first use.
func getServices() (Services, error) {
	if services != nil {
		return services, nil
	}
	if serviceFactory == nil {
		return nil, errors.New("services not configured")
	}

	s, err := serviceFactory(ServiceOptions{ConfigDir: configDir, EnvFiles: envFiles})
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}
	services = s
	return services, nil
}

func closeServices() error {
	if services == nil {
		return nil
	}
	err := services.Close()
	services = nil
	return err
}
