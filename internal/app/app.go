// Package app is the composition root: it builds the driven adapters from
// the user's settings and wires them into the core services on demand.
//
// Services are created lazily so commands that only read settings never
// contact a model provider, and commands that need the model fail fast
// with the provider's error.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/ai"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/config/env"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/config/file"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/dataset"
	guardfile "github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/guardrail/file"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/language/whatlang"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/storage/memory"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/storage/postgres"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/storage/sqlite"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/services"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// Options configures where the application keeps its files.
type Options struct {
	// ConfigDir holds config.toml, prompts/, data/ and guardrail/.
	// Empty means ~/.nutrigenie.
	ConfigDir string

	// EnvFiles are .env files consulted for API keys, earlier files first.
	// Nil means ./.env then <ConfigDir>/.env.
	EnvFiles []string
}

// App owns every adapter built for the current process.
type App struct {
	configDir string

	configStore *file.ConfigStore
	prompts     *file.PromptStore
	settings    *services.SettingsService
	language    *services.LanguageGuard

	// Background work (guardrail hot reload) stops on Close.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	resolved   *domain.AppSettings
	embedder   driven.EmbeddingService
	llm        driven.LLMService
	store      *sqlite.Store
	index      driven.VectorIndex
	stateStore *guardfile.StateStore
	retriever  *services.Retriever
	classifier *services.SafetyClassifier
	helper     *services.TextHelper
	chat       *services.ChatService
	closers    []func() error
}

// New loads configuration and secrets. No provider is contacted.
func New(opts Options) (*App, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".nutrigenie")
	}

	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env", filepath.Join(configDir, ".env")}
	}
	secrets, err := env.NewSecretSource(envFiles...)
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"), services.DefaultPrompts())
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		configDir:   configDir,
		configStore: configStore,
		prompts:     prompts,
		settings:    services.NewSettingsService(configStore, secrets, ai.NewConfigValidator()),
		language:    services.NewLanguageGuard(whatlang.New(), nil),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// ConfigDir returns the application directory.
func (a *App) ConfigDir() string {
	return a.configDir
}

// Settings returns the settings service.
func (a *App) Settings() driving.SettingsService {
	return a.settings
}

// Language returns the language guard.
func (a *App) Language() driving.LanguageService {
	return a.language
}

// Conversations returns the conversation service over the SQLite store.
func (a *App) Conversations(_ context.Context) (driving.ConversationService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	store, err := a.sqliteLocked()
	if err != nil {
		return nil, err
	}
	return services.NewConversationService(store.ConversationStore()), nil
}

// Bootstrapper returns a bootstrap service for the configured index.
func (a *App) Bootstrapper(ctx context.Context) (driving.Bootstrapper, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bootstrapperLocked(ctx)
}

// Retrieval returns a retriever over a populated index. An empty index is
// bootstrapped first when a dataset is configured.
func (a *App) Retrieval(ctx context.Context) (driving.RetrievalService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.retrieverLocked(ctx)
}

// Safety returns the safety classifier. It fails closed when no valid
// state exists.
func (a *App) Safety(ctx context.Context) (driving.SafetyService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.classifierLocked(ctx)
}

// Titles returns the title and recipe extraction helper.
func (a *App) Titles(_ context.Context) (driving.TitleService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.helperLocked()
}

// Trainer returns the guardrail training service.
func (a *App) Trainer(_ context.Context) (driving.GuardrailTrainer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	embedder, err := a.embedderLocked()
	if err != nil {
		return nil, err
	}
	store, err := a.stateStoreLocked()
	if err != nil {
		return nil, err
	}
	return services.NewGuardrailTrainingService(embedder, store), nil
}

// LabelledExamples reads a labelled CSV file for training.
func (a *App) LabelledExamples(ctx context.Context, path string) ([]domain.LabelledExample, error) {
	return dataset.NewLabelledLoader(path).LoadExamples(ctx)
}

// Chat returns the chat service with every collaborator wired.
func (a *App) Chat(ctx context.Context) (driving.ChatService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.chat != nil {
		return a.chat, nil
	}

	if err := a.settings.Validate(); err != nil {
		return nil, err
	}
	settings, err := a.settingsLocked()
	if err != nil {
		return nil, err
	}

	llm, err := a.llmLocked()
	if err != nil {
		return nil, err
	}
	classifier, err := a.classifierLocked(ctx)
	if err != nil {
		return nil, err
	}
	retriever, err := a.retrieverLocked(ctx)
	if err != nil {
		return nil, err
	}
	helper, err := a.helperLocked()
	if err != nil {
		return nil, err
	}
	store, err := a.sqliteLocked()
	if err != nil {
		return nil, err
	}

	assembler := services.NewPromptAssembler()
	assembler.SetPromptStore(a.prompts)

	chat, err := services.NewChatService(services.ChatDeps{
		Language:      a.language,
		Safety:        classifier,
		Retrieval:     retriever,
		Titles:        helper,
		Assembler:     assembler,
		Streamer:      services.NewResponseStreamer(llm, services.DefaultRetryPolicy()),
		Conversations: store.ConversationStore(),
	}, services.ChatConfig{
		Temperature: &settings.Chat.Temperature,
		TopK:        settings.Chat.TopK,
	})
	if err != nil {
		return nil, err
	}
	a.chat = chat
	return chat, nil
}

// Close stops background work and releases every adapter, newest first.
func (a *App) Close() error {
	a.cancel()
	a.wg.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) settingsLocked() (*domain.AppSettings, error) {
	if a.resolved != nil {
		return a.resolved, nil
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	a.resolved = settings
	return settings, nil
}

func (a *App) embedderLocked() (driven.EmbeddingService, error) {
	if a.embedder != nil {
		return a.embedder, nil
	}
	settings, err := a.settingsLocked()
	if err != nil {
		return nil, err
	}
	embedder, err := ai.CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	logger.Debug("Embedder: %s (%d dimensions)", embedder.ModelName(), embedder.Dimensions())
	a.embedder = embedder
	a.closers = append(a.closers, embedder.Close)
	return embedder, nil
}

func (a *App) llmLocked() (driven.LLMService, error) {
	if a.llm != nil {
		return a.llm, nil
	}
	settings, err := a.settingsLocked()
	if err != nil {
		return nil, err
	}
	llm, err := ai.CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		return nil, err
	}
	logger.Debug("LLM: %s", llm.ModelName())
	a.llm = llm
	a.closers = append(a.closers, llm.Close)
	return llm, nil
}

func (a *App) sqliteLocked() (*sqlite.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := sqlite.NewStore(filepath.Join(a.configDir, "data"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)
	return store, nil
}

func (a *App) indexLocked(ctx context.Context) (driven.VectorIndex, error) {
	if a.index != nil {
		return a.index, nil
	}
	settings, err := a.settingsLocked()
	if err != nil {
		return nil, err
	}
	embedder, err := a.embedderLocked()
	if err != nil {
		return nil, err
	}
	sig := domain.IndexSignature{Model: embedder.ModelName(), Dimensions: embedder.Dimensions()}

	var index driven.VectorIndex
	switch settings.VectorIndex.Backend {
	case domain.VectorBackendMemory:
		index = memory.NewVectorIndex(sig)
	case domain.VectorBackendPgvector:
		pg, err := postgres.Open(ctx, settings.VectorIndex.DSN, sig)
		if err != nil {
			return nil, err
		}
		index = pg
	default:
		store, err := a.sqliteLocked()
		if err != nil {
			return nil, err
		}
		lite, err := store.VectorIndex(ctx, sig)
		if err != nil {
			return nil, err
		}
		index = lite
	}

	logger.Debug("Vector index: %s (%s)", settings.VectorIndex.Backend, sig)
	a.index = index
	a.closers = append(a.closers, index.Close)
	return index, nil
}

func (a *App) bootstrapperLocked(ctx context.Context) (*services.BootstrapService, error) {
	settings, err := a.settingsLocked()
	if err != nil {
		return nil, err
	}
	index, err := a.indexLocked(ctx)
	if err != nil {
		return nil, err
	}
	var loader driven.DatasetLoader
	if settings.Dataset.RecipesPath != "" {
		loader = dataset.NewLoader(settings.Dataset)
	}
	return services.NewBootstrapService(loader, a.embedder, index), nil
}

func (a *App) retrieverLocked(ctx context.Context) (*services.Retriever, error) {
	if a.retriever != nil {
		return a.retriever, nil
	}
	settings, err := a.settingsLocked()
	if err != nil {
		return nil, err
	}
	index, err := a.indexLocked(ctx)
	if err != nil {
		return nil, err
	}

	if settings.Dataset.RecipesPath != "" {
		boot, err := a.bootstrapperLocked(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := boot.Bootstrap(ctx); err != nil {
			return nil, fmt.Errorf("bootstrap vector index: %w", err)
		}
	} else if n, err := index.Count(ctx); err == nil && n == 0 {
		logger.Warn("vector index is empty and dataset.recipes is not set; answers will not be grounded")
	}

	a.retriever = services.NewRetriever(a.embedder, index, settings.Chat.TopK)
	return a.retriever, nil
}

func (a *App) stateStoreLocked() (*guardfile.StateStore, error) {
	if a.stateStore != nil {
		return a.stateStore, nil
	}
	settings, err := a.settingsLocked()
	if err != nil {
		return nil, err
	}
	path := settings.Guardrail.StatePath
	if path == "" {
		path = filepath.Join(a.configDir, "guardrail", "guardrail.json")
	}
	store, err := guardfile.NewStateStore(path)
	if err != nil {
		return nil, err
	}
	a.stateStore = store
	return store, nil
}

func (a *App) classifierLocked(ctx context.Context) (*services.SafetyClassifier, error) {
	if a.classifier != nil {
		return a.classifier, nil
	}
	settings, err := a.settingsLocked()
	if err != nil {
		return nil, err
	}
	embedder, err := a.embedderLocked()
	if err != nil {
		return nil, err
	}
	store, err := a.stateStoreLocked()
	if err != nil {
		return nil, err
	}
	classifier, err := services.NewSafetyClassifier(ctx, embedder, store)
	if err != nil {
		return nil, err
	}

	if settings.Guardrail.Watch {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := classifier.WatchState(a.ctx); err != nil {
				logger.Warn("guardrail watcher stopped: %v", err)
			}
		}()
	}

	a.classifier = classifier
	return classifier, nil
}

func (a *App) helperLocked() (*services.TextHelper, error) {
	if a.helper != nil {
		return a.helper, nil
	}
	llm, err := a.llmLocked()
	if err != nil {
		return nil, err
	}
	helper := services.NewTextHelper(llm, services.DefaultRetryPolicy())
	helper.SetPromptStore(a.prompts)
	a.helper = helper
	return helper, nil
}
