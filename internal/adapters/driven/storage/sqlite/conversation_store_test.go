package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestConversationStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	conversations := store.ConversationStore()
	ctx := context.Background()

	conv, err := conversations.CreateConversation(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, domain.DefaultConversationTitle, conv.Title)

	got, err := conversations.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	assert.Equal(t, conv.Title, got.Title)
	assert.True(t, conv.CreatedAt.Equal(got.CreatedAt))
}

func TestConversationStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.ConversationStore().GetConversation(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationStore_ListMostRecentFirst(t *testing.T) {
	store := setupTestStore(t)
	store.now = fixedClock()
	conversations := store.ConversationStore()
	ctx := context.Background()

	first, err := conversations.CreateConversation(ctx, "Première")
	require.NoError(t, err)
	second, err := conversations.CreateConversation(ctx, "Deuxième")
	require.NoError(t, err)

	list, err := conversations.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, conversations.Touch(ctx, first.ID))

	list, err = conversations.ListConversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestConversationStore_ListEmpty(t *testing.T) {
	store := setupTestStore(t)

	list, err := store.ConversationStore().ListConversations(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestConversationStore_UpdateTitle(t *testing.T) {
	store := setupTestStore(t)
	conversations := store.ConversationStore()
	ctx := context.Background()

	conv, err := conversations.CreateConversation(ctx, "")
	require.NoError(t, err)

	require.NoError(t, conversations.UpdateTitle(ctx, conv.ID, "Salade de lentilles"))
	got, err := conversations.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Salade de lentilles", got.Title)

	assert.ErrorIs(t, conversations.UpdateTitle(ctx, "missing", "x"), domain.ErrNotFound)
	assert.ErrorIs(t, conversations.Touch(ctx, "missing"), domain.ErrNotFound)
}

func TestConversationStore_SaveTurnAndLoadHistory(t *testing.T) {
	store := setupTestStore(t)
	conversations := store.ConversationStore()
	ctx := context.Background()

	conv, err := conversations.CreateConversation(ctx, "")
	require.NoError(t, err)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, conversations.SaveTurn(ctx, conv.ID, domain.ConversationTurn{
		Role: domain.RoleUser, Content: "Une idée de dîner ?", Timestamp: ts,
	}))
	require.NoError(t, conversations.SaveTurn(ctx, conv.ID, domain.ConversationTurn{
		Role:      domain.RoleAssistant,
		Content:   "Essayez un curry de pois chiches.",
		Timestamp: ts.Add(2 * time.Second),
		Latency:   1500 * time.Millisecond,
		Cost:      0.002,
		Emissions: 0.4,
	}))

	history, err := conversations.LoadHistory(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.True(t, ts.Equal(history[0].Timestamp))
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, "Essayez un curry de pois chiches.", history[1].Content)
	assert.Equal(t, 1500*time.Millisecond, history[1].Latency)
	assert.InDelta(t, 0.002, history[1].Cost, 1e-12)
	assert.InDelta(t, 0.4, history[1].Emissions, 1e-12)
}

func TestConversationStore_SaveTurn_Errors(t *testing.T) {
	store := setupTestStore(t)
	conversations := store.ConversationStore()
	ctx := context.Background()

	conv, err := conversations.CreateConversation(ctx, "")
	require.NoError(t, err)

	err = conversations.SaveTurn(ctx, conv.ID, domain.ConversationTurn{Role: domain.RoleSystem, Content: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = conversations.SaveTurn(ctx, "missing", domain.ConversationTurn{Role: domain.RoleUser, Content: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = conversations.LoadHistory(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationStore_DeleteCascadesTurns(t *testing.T) {
	store := setupTestStore(t)
	conversations := store.ConversationStore()
	ctx := context.Background()

	conv, err := conversations.CreateConversation(ctx, "")
	require.NoError(t, err)
	require.NoError(t, conversations.SaveTurn(ctx, conv.ID, domain.ConversationTurn{Role: domain.RoleUser, Content: "x"}))

	require.NoError(t, conversations.DeleteConversation(ctx, conv.ID))

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count))
	assert.Zero(t, count)

	assert.ErrorIs(t, conversations.DeleteConversation(ctx, conv.ID), domain.ErrNotFound)
}

func TestConversationStore_Suggestions(t *testing.T) {
	store := setupTestStore(t)
	conversations := store.ConversationStore()
	ctx := context.Background()

	empty, err := conversations.LoadSuggestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, conversations.SaveSuggestions(ctx, []string{"Ratatouille", "Écrasé de patates"}))
	require.NoError(t, conversations.SaveSuggestions(ctx, []string{"ratatouille", "", "ÉCRASÉ DE PATATES", "Taboulé"}))

	got, err := conversations.LoadSuggestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ratatouille", "Écrasé de patates", "Taboulé"}, got)
}

func TestConversationStore_ContextCancellation(t *testing.T) {
	store := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ConversationStore().CreateConversation(ctx, "x")
	assert.Error(t, err)
}

func TestConversationStore_ConcurrentWrites(t *testing.T) {
	store := setupTestStore(t)
	conversations := store.ConversationStore()
	ctx := context.Background()

	conv, err := conversations.CreateConversation(ctx, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, conversations.SaveTurn(ctx, conv.ID, domain.ConversationTurn{
				Role: domain.RoleUser, Content: "message",
			}))
		}()
	}
	wg.Wait()

	history, err := conversations.LoadHistory(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, history, 10)
}
