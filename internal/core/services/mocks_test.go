package services

import (
	"context"
	"errors"
	"hash/fnv"
	"iter"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// --- Model ---

// llmAttempt scripts one Stream call: the chunks to yield, then err if set.
type llmAttempt struct {
	chunks []string
	err    error
}

// llmReply scripts one Complete call.
type llmReply struct {
	text string
	err  error
}

// fakeLLM implements driven.LLMService with scripted answers.
// When the scripts run out, the last entry is repeated.
type fakeLLM struct {
	mu       sync.Mutex
	attempts []llmAttempt
	replies  []llmReply

	streamCalls   int
	completeCalls int
	closedStreams int
	lastMessages  []domain.Message
	lastOpts      driven.CompletionOptions
	completeMsgs  [][]domain.Message
	completeOpts  []driven.CompletionOptions
}

func rateLimitErr() error {
	return domain.NewModelError("mistral", 429, "too many requests")
}

func (f *fakeLLM) Complete(_ context.Context, messages []domain.Message, opts driven.CompletionOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeMsgs = append(f.completeMsgs, messages)
	f.completeOpts = append(f.completeOpts, opts)
	if len(f.replies) == 0 {
		f.completeCalls++
		return "", errors.New("no scripted reply")
	}
	r := f.replies[min(f.completeCalls, len(f.replies)-1)]
	f.completeCalls++
	return r.text, r.err
}

func (f *fakeLLM) Stream(_ context.Context, messages []domain.Message, opts driven.CompletionOptions) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f.mu.Lock()
		f.lastMessages = messages
		f.lastOpts = opts
		a := llmAttempt{err: errors.New("no scripted attempt")}
		if len(f.attempts) > 0 {
			a = f.attempts[min(f.streamCalls, len(f.attempts)-1)]
		}
		f.streamCalls++
		f.mu.Unlock()

		defer func() {
			f.mu.Lock()
			f.closedStreams++
			f.mu.Unlock()
		}()

		for _, c := range a.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if a.err != nil {
			yield("", a.err)
		}
	}
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) streams() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamCalls
}

// --- Retry ---

// recordingSleep records requested delays without waiting.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func testPolicy(rec *recordingSleep) RetryPolicy {
	p := DefaultRetryPolicy()
	p.Sleep = rec.sleep
	return p
}

// --- Embedding ---

// bagEmbedder implements driven.EmbeddingService with a tiny bag-of-words
// hash so related texts land near each other.
type bagEmbedder struct {
	dims  int
	model string
	err   error
	calls int
	mu    sync.Mutex
}

func newBagEmbedder(dims int) *bagEmbedder {
	return &bagEmbedder{dims: dims, model: "bag-test"}
}

func (e *bagEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return bagVector(text, e.dims), nil
}

func (e *bagEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *bagEmbedder) Dimensions() int { return e.dims }
func (e *bagEmbedder) ModelName() string { return e.model }
func (e *bagEmbedder) Ping(_ context.Context) error { return nil }
func (e *bagEmbedder) Close() error { return nil }

func bagVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?'\"")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(dims)]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range v {
			v[i] /= n
		}
	}
	return v
}

// --- Vector index ---

// stubIndex implements driven.VectorIndex with fixed hits.
type stubIndex struct {
	sig       domain.IndexSignature
	count     int
	countErr  error
	hits      []domain.VectorHit
	queryErr  error
	populated []domain.VectorIndexEntry
	popErr    error
	lastTopK  int
}

func (s *stubIndex) Count(_ context.Context) (int, error) { return s.count, s.countErr }

func (s *stubIndex) Populate(_ context.Context, entries []domain.VectorIndexEntry) error {
	if s.popErr != nil {
		return s.popErr
	}
	s.populated = append(s.populated, entries...)
	s.count += len(entries)
	return nil
}

func (s *stubIndex) Query(_ context.Context, _ []float32, topK int) ([]domain.VectorHit, error) {
	s.lastTopK = topK
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if topK < len(s.hits) {
		return s.hits[:topK], nil
	}
	return s.hits, nil
}

func (s *stubIndex) Signature() domain.IndexSignature { return s.sig }
func (s *stubIndex) Close() error { return nil }

// --- Classifier state ---

// memStateStore implements driven.ClassifierStateStore in memory.
type memStateStore struct {
	mu      sync.Mutex
	state   *domain.ClassifierState
	loadErr error
	saveErr error
	saves   int
}

func (m *memStateStore) Load(_ context.Context) (*domain.ClassifierState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.state.Clone(), nil
}

func (m *memStateStore) Save(_ context.Context, state *domain.ClassifierState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.state = state.Clone()
	return nil
}

func (m *memStateStore) Path() string { return "memory://guardrail.json" }

func (m *memStateStore) saved() *domain.ClassifierState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// zeroState returns an untrained state: every query scores exactly 0.5 + bias.
func zeroState(dims int, bias float64) *domain.ClassifierState {
	return &domain.ClassifierState{
		Version:       domain.ClassifierStateVersion,
		Revision:      1,
		EmbedderModel: "bag-test",
		Dimensions:    dims,
		Weights:       make([]float64, dims),
		Bias:          bias,
		LearningRate:  0.5,
		L2:            1e-4,
	}
}

// --- Safety ---

// stubSafety implements driving.SafetyService with a fixed verdict.
type stubSafety struct {
	mu       sync.Mutex
	safe     bool
	err      error
	predicts int
	learned  []domain.LabelledExample
	learnErr error
}

func (s *stubSafety) Predict(_ context.Context, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predicts++
	return s.safe, s.err
}

func (s *stubSafety) Score(_ context.Context, _ string) (float64, error) {
	if s.safe {
		return 0.1, s.err
	}
	return 0.9, s.err
}

func (s *stubSafety) IncrementalLearn(_ context.Context, query string, label domain.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learned = append(s.learned, domain.LabelledExample{Text: query, Label: label})
	return s.learnErr
}

func (s *stubSafety) State() *domain.ClassifierState { return nil }

// --- Language ---

// stubDetector implements driven.LanguageDetector.
type stubDetector struct {
	code       string
	confidence float64
}

func (d stubDetector) Detect(_ string) (string, float64) { return d.code, d.confidence }

// stubLanguage implements driving.LanguageService.
type stubLanguage struct {
	supported bool
	calls     int
}

func (l *stubLanguage) IsSupported(_ string) bool {
	l.calls++
	return l.supported
}

// --- Retrieval ---

// stubRetrieval implements driving.RetrievalService.
type stubRetrieval struct {
	docs  []domain.ReferenceDocument
	err   error
	calls int
}

func (r *stubRetrieval) Retrieve(_ context.Context, _ string, topK int) ([]domain.ReferenceDocument, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if topK < len(r.docs) {
		return r.docs[:topK], nil
	}
	return r.docs, nil
}

func (r *stubRetrieval) RetrieveScored(ctx context.Context, q string, topK int) ([]domain.VectorHit, error) {
	docs, err := r.Retrieve(ctx, q, topK)
	if err != nil {
		return nil, err
	}
	hits := make([]domain.VectorHit, len(docs))
	for i, d := range docs {
		hits[i] = domain.VectorHit{Entry: domain.VectorIndexEntry{ID: d.ID, Document: d}}
	}
	return hits, nil
}

// --- Dataset ---

// stubDataset implements driven.DatasetLoader.
type stubDataset struct {
	docs       []domain.ReferenceDocument
	embeddings [][]float32
	docsErr    error
	embedErr   error
}

func (d *stubDataset) LoadDocuments(_ context.Context) ([]domain.ReferenceDocument, error) {
	return d.docs, d.docsErr
}

func (d *stubDataset) LoadEmbeddings(_ context.Context) ([][]float32, error) {
	return d.embeddings, d.embedErr
}

// --- Prompts ---

// mapPromptStore implements driven.PromptStore.
type mapPromptStore map[string]string

func (m mapPromptStore) Load(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", errors.New("not found")
}

func (m mapPromptStore) Reload() {}

// --- Fixtures ---

func lentilSoup() domain.ReferenceDocument {
	return domain.ReferenceDocument{
		ID:              "r1",
		Title:           "Soupe de lentilles corail",
		PreparationTime: "30 min",
		Ingredients:     []string{"lentilles corail", "carotte", "lait de coco"},
		Instructions:    "Faire revenir, ajouter les lentilles, cuire 20 minutes.",
		DietTags:        []string{"végétarien", "sans gluten"},
	}
}

func chickpeaSalad() domain.ReferenceDocument {
	return domain.ReferenceDocument{
		ID:          "r2",
		Title:       "Salade de pois chiches",
		Ingredients: []string{"pois chiches", "tomate", "concombre"},
		DietTags:    []string{"végan"},
	}
}
