package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is a SQLite implementation of driven.ConversationStore.
// Timestamps are stored as Unix nanoseconds so ordering is exact.
type ConversationStore struct {
	store *Store
}

// CreateConversation stores a new conversation with a generated ID.
func (c *ConversationStore) CreateConversation(ctx context.Context, title string) (domain.Conversation, error) {
	if title == "" {
		title = domain.DefaultConversationTitle
	}
	now := c.store.now().UTC()
	conv := domain.Conversation{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := c.store.db.ExecContext(ctx,
		"INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)",
		conv.ID, conv.Title, now.UnixNano(), now.UnixNano())
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

// GetConversation retrieves a conversation by ID.
func (c *ConversationStore) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	row := c.store.db.QueryRowContext(ctx,
		"SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?", id)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Conversation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns conversations, most recently used first.
func (c *ConversationStore) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := c.store.db.QueryContext(ctx,
		"SELECT id, title, created_at, updated_at FROM conversations ORDER BY updated_at DESC, created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := []domain.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

// UpdateTitle renames a conversation.
func (c *ConversationStore) UpdateTitle(ctx context.Context, id, title string) error {
	res, err := c.store.db.ExecContext(ctx, "UPDATE conversations SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return requireRow(res)
}

// Touch marks a conversation as used now.
func (c *ConversationStore) Touch(ctx context.Context, id string) error {
	res, err := c.store.db.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?", c.store.now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return requireRow(res)
}

// DeleteConversation removes a conversation. Its turns cascade.
func (c *ConversationStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := c.store.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return requireRow(res)
}

// LoadHistory returns the turns of a conversation in recording order.
func (c *ConversationStore) LoadHistory(ctx context.Context, id string) ([]domain.ConversationTurn, error) {
	if _, err := c.GetConversation(ctx, id); err != nil {
		return nil, err
	}

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT role, content, created_at, latency_ns, cost, emissions
		FROM messages WHERE conversation_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	out := []domain.ConversationTurn{}
	for rows.Next() {
		var (
			turn      domain.ConversationTurn
			role      string
			createdAt int64
			latency   int64
		)
		if err := rows.Scan(&role, &turn.Content, &createdAt, &latency, &turn.Cost, &turn.Emissions); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.Role = domain.Role(role)
		turn.Timestamp = time.Unix(0, createdAt).UTC()
		turn.Latency = time.Duration(latency)
		out = append(out, turn)
	}
	return out, rows.Err()
}

// SaveTurn appends a turn to a conversation.
func (c *ConversationStore) SaveTurn(ctx context.Context, id string, turn domain.ConversationTurn) error {
	if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
		return fmt.Errorf("%w: role %q cannot be stored", domain.ErrInvalidInput, turn.Role)
	}
	ts := turn.Timestamp
	if ts.IsZero() {
		ts = c.store.now()
	}

	res, err := c.store.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, role, content, created_at, latency_ns, cost, emissions)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM conversations WHERE id = ?)`,
		id, string(turn.Role), turn.Content, ts.UTC().UnixNano(), int64(turn.Latency), turn.Cost, turn.Emissions, id)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return requireRow(res)
}

// LoadSuggestions returns stored recipe suggestions in insertion order.
func (c *ConversationStore) LoadSuggestions(ctx context.Context) ([]string, error) {
	rows, err := c.store.db.QueryContext(ctx, "SELECT title FROM suggestions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("load suggestions: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, title)
	}
	return out, rows.Err()
}

// SaveSuggestions appends suggestions not already stored (case-insensitive).
// SQLite's lower() only folds ASCII, so the key is computed here.
func (c *ConversationStore) SaveSuggestions(ctx context.Context, titles []string) error {
	return c.store.withTx(ctx, func(tx *sql.Tx) error {
		for _, title := range titles {
			if title == "" {
				continue
			}
			_, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO suggestions (title, title_key) VALUES (?, ?)",
				title, strings.ToLower(title))
			if err != nil {
				return fmt.Errorf("insert suggestion: %w", err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (domain.Conversation, error) {
	var (
		conv             domain.Conversation
		created, updated int64
	)
	if err := row.Scan(&conv.ID, &conv.Title, &created, &updated); err != nil {
		return domain.Conversation{}, err
	}
	conv.CreatedAt = time.Unix(0, created).UTC()
	conv.UpdatedAt = time.Unix(0, updated).UTC()
	return conv, nil
}
