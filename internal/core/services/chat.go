package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatDeps holds the collaborators of a chat turn.
type ChatDeps struct {
	Language      driving.LanguageService
	Safety        driving.SafetyService
	Retrieval     driving.RetrievalService
	Titles        driving.TitleService
	Assembler     *PromptAssembler
	Streamer      *ResponseStreamer
	Conversations driven.ConversationStore
}

// ChatConfig holds turn parameters.
type ChatConfig struct {
	// Temperature is the answer sampling temperature. Nil means 0.5.
	Temperature *float64

	// TopK is the number of recipes retrieved per turn (default: 3).
	TopK int
}

// ChatService runs one moderated, retrieval-grounded turn at a time per conversation.
type ChatService struct {
	deps ChatDeps
	cfg  ChatConfig
	now  func() time.Time

	locksMu sync.Mutex
	locks   map[string]*conversationLock
}

// conversationLock serialises turns of one conversation. refs counts the
// turns holding or waiting for it; the entry is dropped when it reaches zero.
type conversationLock struct {
	mu   sync.Mutex
	refs int
}

// NewChatService creates a chat service.
func NewChatService(deps ChatDeps, cfg ChatConfig) (*ChatService, error) {
	switch {
	case deps.Language == nil:
		return nil, errors.New("chat service: language guard is required")
	case deps.Safety == nil:
		return nil, fmt.Errorf("chat service: %w", domain.ErrGuardrailUnavailable)
	case deps.Retrieval == nil:
		return nil, fmt.Errorf("chat service: %w", domain.ErrVectorIndexUnavailable)
	case deps.Streamer == nil:
		return nil, fmt.Errorf("chat service: %w", domain.ErrLLMUnavailable)
	case deps.Conversations == nil:
		return nil, errors.New("chat service: conversation store is required")
	}
	if deps.Assembler == nil {
		deps.Assembler = NewPromptAssembler()
	}
	if cfg.Temperature == nil {
		t := domain.DefaultTemperature
		cfg.Temperature = &t
	}
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	return &ChatService{
		deps:  deps,
		cfg:   cfg,
		now:   time.Now,
		locks: make(map[string]*conversationLock),
	}, nil
}

// Verdict runs the language gate, then the safety gate. The classifier is
// not consulted for unsupported languages.
func (s *ChatService) Verdict(ctx context.Context, query string) (domain.SafetyVerdict, error) {
	var v domain.SafetyVerdict
	v.SupportedLanguage = s.deps.Language.IsSupported(query)
	if !v.SupportedLanguage {
		return v, nil
	}
	safe, err := s.deps.Safety.Predict(ctx, query)
	if err != nil {
		return v, fmt.Errorf("classify query: %w", err)
	}
	v.Safe = safe
	return v, nil
}

// Turn processes one user message.
func (s *ChatService) Turn(
	ctx context.Context,
	req domain.TurnRequest,
	onEvent func(driving.StreamEvent),
) (*domain.TurnOutcome, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("chat turn: %w: empty message", domain.ErrInvalidInput)
	}

	logger.Turn(req.ConversationID)

	verdict, err := s.Verdict(ctx, query)
	if err != nil {
		return nil, err
	}
	logger.Debug("Verdict: language=%t safe=%t", verdict.SupportedLanguage, verdict.Safe)

	conv, unlock, err := s.openConversation(ctx, req.ConversationID, query, verdict.Allowed())
	if err != nil {
		return nil, err
	}
	defer unlock()

	outcome := &domain.TurnOutcome{
		ConversationID: conv.ID,
		Verdict:        verdict,
		Retrieved:      []domain.ReferenceDocument{},
		Suggestions:    []string{},
	}

	if !verdict.Allowed() {
		if err := s.saveTurn(ctx, conv.ID, domain.RoleUser, query, 0); err != nil {
			return nil, err
		}
		if verdict.SupportedLanguage {
			outcome.Status = domain.TurnRejectedUnsafe
			outcome.Answer = domain.UnsafeWarning
		} else {
			outcome.Status = domain.TurnRejectedLanguage
			outcome.Answer = domain.UnsupportedLanguageWarning
		}
		logger.Info("Turn rejected: %s", outcome.Status)
		return outcome, nil
	}

	stored, err := s.deps.Conversations.LoadHistory(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if err := s.saveTurn(ctx, conv.ID, domain.RoleUser, query, 0); err != nil {
		return nil, err
	}

	retrievalStart := s.now()
	docs, err := s.deps.Retrieval.Retrieve(ctx, query, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve recipes: %w", err)
	}
	logger.Stage("retrieval", s.now().Sub(retrievalStart))
	outcome.Retrieved = docs

	history := make([]domain.Message, 0, len(stored)+1)
	for _, t := range stored {
		history = append(history, t.Message())
	}
	history = append(history, domain.Message{Role: domain.RoleUser, Content: query})
	messages := s.deps.Assembler.Assemble(history, docs)

	temperature := *s.cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	start := s.now()
	result, err := s.deps.Streamer.Collect(ctx, messages, temperature, onEvent)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	outcome.Latency = s.now().Sub(start)
	logger.Stage("generation", outcome.Latency)
	outcome.Attempts = result.Attempts

	switch {
	case result.Injection:
		outcome.Status = domain.TurnInjection
		outcome.Answer = domain.InjectionWarning
		logger.Warn("model flagged the query as an injection attempt")
		if err := s.deps.Safety.IncrementalLearn(ctx, query, domain.LabelUnsafe); err != nil {
			return nil, fmt.Errorf("record injection: %w", err)
		}
		return outcome, nil

	case result.Exhausted:
		outcome.Status = domain.TurnRateLimited
		outcome.Answer = result.Text

	default:
		outcome.Status = domain.TurnAnswered
		outcome.Answer = result.Text
		outcome.Suggestions = s.recordSuggestions(ctx, result.Text)
	}

	if err := s.saveTurn(ctx, conv.ID, domain.RoleAssistant, outcome.Answer, outcome.Latency); err != nil {
		return nil, err
	}
	logger.Info("Turn %s in %s after %d attempt(s)", outcome.Status, outcome.Latency, outcome.Attempts)
	return outcome, nil
}

// openConversation returns the target conversation locked for this turn,
// creating it when id is empty. Titles are only generated for allowed turns.
func (s *ChatService) openConversation(
	ctx context.Context,
	id, query string,
	allowed bool,
) (domain.Conversation, func(), error) {
	store := s.deps.Conversations

	if id == "" {
		title := domain.DefaultConversationTitle
		if allowed {
			title = s.title(ctx, query)
		}
		conv, err := store.CreateConversation(ctx, title)
		if err != nil {
			return domain.Conversation{}, nil, fmt.Errorf("create conversation: %w", err)
		}
		logger.Debug("Created conversation %s (%q)", conv.ID, conv.Title)
		return conv, s.lock(conv.ID), nil
	}

	unlock := s.lock(id)
	conv, err := store.GetConversation(ctx, id)
	if err != nil {
		unlock()
		return domain.Conversation{}, nil, fmt.Errorf("get conversation: %w", err)
	}
	if allowed && conv.HasDefaultTitle() {
		title := s.title(ctx, query)
		if title != domain.DefaultConversationTitle {
			if err := store.UpdateTitle(ctx, conv.ID, title); err != nil {
				logger.Warn("failed to rename conversation %s: %v", conv.ID, err)
			} else {
				conv.Title = title
			}
		}
	}
	return conv, unlock, nil
}

// title summarises query, falling back to the default title on failure.
func (s *ChatService) title(ctx context.Context, query string) string {
	if s.deps.Titles == nil {
		return domain.DefaultConversationTitle
	}
	title, err := s.deps.Titles.SummarizeTitle(ctx, query)
	if err != nil || title == "" {
		logger.Warn("title generation failed, keeping default title: %v", err)
		return domain.DefaultConversationTitle
	}
	return title
}

// recordSuggestions extracts recipe titles from an answer that talks about
// recipes and stores the ones not seen before. Failures are only logged.
func (s *ChatService) recordSuggestions(ctx context.Context, answer string) []string {
	if s.deps.Titles == nil || !MentionsRecipe(answer) {
		return []string{}
	}
	titles, err := s.deps.Titles.ExtractRecipeTitles(ctx, answer)
	if err != nil {
		logger.Warn("recipe extraction failed: %v", err)
		return []string{}
	}
	existing, err := s.deps.Conversations.LoadSuggestions(ctx)
	if err != nil {
		logger.Warn("failed to load suggestions: %v", err)
		return []string{}
	}
	fresh := NewSuggestions(titles, existing)
	if len(fresh) == 0 {
		return fresh
	}
	if err := s.deps.Conversations.SaveSuggestions(ctx, fresh); err != nil {
		logger.Warn("failed to save suggestions: %v", err)
		return []string{}
	}
	logger.Debug("Stored %d new recipe suggestions", len(fresh))
	return fresh
}

func (s *ChatService) saveTurn(ctx context.Context, id string, role domain.Role, content string, latency time.Duration) error {
	turn := domain.ConversationTurn{
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
		Latency:   latency,
	}
	if err := s.deps.Conversations.SaveTurn(ctx, id, turn); err != nil {
		return fmt.Errorf("save %s turn: %w", role, err)
	}
	if err := s.deps.Conversations.Touch(ctx, id); err != nil {
		logger.Warn("failed to touch conversation %s: %v", id, err)
	}
	return nil
}

// lock acquires the per-conversation lock and returns its release func.
func (s *ChatService) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &conversationLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}
