package mcp

import (
	"context"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	hits     []domain.VectorHit
	err      error
	lastTopK int
}

func (m *mockRetrievalService) Retrieve(ctx context.Context, query string, topK int) ([]domain.ReferenceDocument, error) {
	hits, err := m.RetrieveScored(ctx, query, topK)
	docs := make([]domain.ReferenceDocument, len(hits))
	for i := range hits {
		docs[i] = hits[i].Entry.Document
	}
	return docs, err
}

func (m *mockRetrievalService) RetrieveScored(_ context.Context, _ string, topK int) ([]domain.VectorHit, error) {
	m.lastTopK = topK
	return m.hits, m.err
}

// mockSafetyService is a mock implementation of driving.SafetyService.
type mockSafetyService struct {
	score float64
	err   error
}

func (m *mockSafetyService) Predict(_ context.Context, _ string) (bool, error) {
	return m.score < 0.5, m.err
}

func (m *mockSafetyService) Score(_ context.Context, _ string) (float64, error) {
	return m.score, m.err
}

func (m *mockSafetyService) IncrementalLearn(_ context.Context, _ string, _ domain.Label) error {
	return m.err
}

func (m *mockSafetyService) State() *domain.ClassifierState {
	return nil
}

// mockLanguageService accepts a fixed answer.
type mockLanguageService struct {
	supported bool
}

func (m *mockLanguageService) IsSupported(_ string) bool {
	return m.supported
}

// mockTitleService is a mock implementation of driving.TitleService.
type mockTitleService struct {
	title  string
	titles []string
	err    error
}

func (m *mockTitleService) SummarizeTitle(_ context.Context, _ string) (string, error) {
	return m.title, m.err
}

func (m *mockTitleService) ExtractRecipeTitles(_ context.Context, _ string) ([]string, error) {
	return m.titles, m.err
}

// mockConversationService is a mock implementation of driving.ConversationService.
type mockConversationService struct {
	conversations []domain.Conversation
	turns         map[string][]domain.ConversationTurn
	suggestions   []string
	err           error
}

func (m *mockConversationService) List(_ context.Context) ([]domain.Conversation, error) {
	return m.conversations, m.err
}

func (m *mockConversationService) Get(_ context.Context, id string) (domain.Conversation, []domain.ConversationTurn, error) {
	if m.err != nil {
		return domain.Conversation{}, nil, m.err
	}
	for _, c := range m.conversations {
		if c.ID == id {
			return c, m.turns[id], nil
		}
	}
	return domain.Conversation{}, nil, domain.ErrNotFound
}

func (m *mockConversationService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockConversationService) Suggestions(_ context.Context) ([]string, error) {
	return m.suggestions, m.err
}
