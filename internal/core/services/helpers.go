package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// Ensure TextHelper implements the interfaces.
var (
	_ driving.TitleService    = (*TextHelper)(nil)
	_ driven.PromptStoreAware = (*TextHelper)(nil)
)

// Length limits for generated titles.
const (
	MaxTitleLength       = 30
	MaxRecipeTitleLength = 50
	ellipsis             = "..."
)

// TextHelper runs the short one-shot completions: conversation titles and
// recipe title extraction.
type TextHelper struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	policy  RetryPolicy
}

// NewTextHelper creates a helper over the given model.
func NewTextHelper(llm driven.LLMService, policy RetryPolicy) *TextHelper {
	return &TextHelper{
		llm:    llm,
		policy: policy.withDefaults(),
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (h *TextHelper) SetPromptStore(store driven.PromptStore) {
	h.prompts = store
}

// SummarizeTitle asks the model for a short title describing text.
// The result never exceeds MaxTitleLength runes.
func (h *TextHelper) SummarizeTitle(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("summarize title: %w: empty text", domain.ErrInvalidInput)
	}

	raw, err := h.complete(ctx, driven.PromptTitle, text, domain.DefaultTemperature)
	if err != nil {
		return "", fmt.Errorf("summarize title: %w", err)
	}

	title := cleanTitle(firstLine(raw))
	if title == "" {
		return domain.DefaultConversationTitle, nil
	}
	title = TruncateTitle(title, MaxTitleLength)
	logger.Debug("Generated title %q", title)
	return title, nil
}

// ExtractRecipeTitles asks the model which recipes text proposes.
// Titles are deduplicated case-insensitively, keeping the first spelling.
func (h *TextHelper) ExtractRecipeTitles(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	raw, err := h.complete(ctx, driven.PromptRecipeExtraction, text, domain.DefaultExtractionTemperature)
	if err != nil {
		return nil, fmt.Errorf("extract recipe titles: %w", err)
	}

	titles := ParseTitleList(raw)
	logger.Debug("Extracted %d recipe titles", len(titles))
	return titles, nil
}

func (h *TextHelper) complete(ctx context.Context, prompt, text string, temperature float64) (string, error) {
	messages := []domain.Message{
		{Role: domain.RoleSystem, Content: loadPrompt(h.prompts, prompt)},
		{Role: domain.RoleUser, Content: text},
	}
	opts := driven.CompletionOptions{Temperature: temperature}

	out, _, err := retryCall(ctx, h.policy, func(ctx context.Context) (string, error) {
		return h.llm.Complete(ctx, messages, opts)
	})
	return out, err
}

// TruncateTitle shortens s to at most limit runes, ending with "..." when cut.
func TruncateTitle(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return string(r[:limit])
	}
	return string(r[:limit-len(ellipsis)]) + ellipsis
}

// ParseTitleList turns a one-title-per-line answer into clean titles.
// List markers and surrounding quotes are removed, empty lines are skipped,
// duplicates are dropped and long titles truncated to MaxRecipeTitleLength.
func ParseTitleList(raw string) []string {
	titles := []string{}
	seen := make(map[string]bool)
	for _, line := range strings.Split(raw, "\n") {
		title := cleanTitle(stripListMarker(line))
		if title == "" {
			continue
		}
		title = TruncateTitle(title, MaxRecipeTitleLength)
		key := strings.ToLower(title)
		if seen[key] {
			continue
		}
		seen[key] = true
		titles = append(titles, title)
	}
	return titles
}

// NewSuggestions returns the titles not already present in existing,
// compared case-insensitively.
func NewSuggestions(titles, existing []string) []string {
	known := make(map[string]bool, len(existing))
	for _, e := range existing {
		known[strings.ToLower(e)] = true
	}
	out := []string{}
	for _, t := range titles {
		key := strings.ToLower(t)
		if known[key] {
			continue
		}
		known[key] = true
		out = append(out, t)
	}
	return out
}

// MentionsRecipe reports whether an answer talks about recipes.
func MentionsRecipe(answer string) bool {
	lower := strings.ToLower(answer)
	for _, kw := range domain.RecipeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_`")
	s = strings.Trim(s, "\"'«»“”‘’ ")
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

// stripListMarker removes "-", "*", "•" or "1." / "1)" prefixes.
func stripListMarker(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*•·–")
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		line = line[i+1:]
	}
	return strings.TrimSpace(line)
}
