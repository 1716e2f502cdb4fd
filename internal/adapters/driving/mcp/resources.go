package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for NutriGenie resources.
	uriScheme = "nutrigenie://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "conversations",
		Name:        "conversations",
		Description: "Stored conversations, most recently used first",
		MIMEType:    "application/json",
	}, s.handleConversationsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "conversations/{conversationId}",
		Name:        "conversation-turns",
		Description: "Messages of a stored conversation",
		MIMEType:    "application/json",
	}, s.handleConversationResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "suggestions",
		Name:        "suggestions",
		Description: "Recipe titles suggested in past answers",
		MIMEType:    "application/json",
	}, s.handleSuggestionsResource)
}

type conversationInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type turnInfo struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// handleConversationsResource lists stored conversations.
func (s *Server) handleConversationsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Conversations == nil {
		return jsonResource(req.Params.URI, []conversationInfo{})
	}

	convs, err := s.ports.Conversations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	infos := make([]conversationInfo, len(convs))
	for i, c := range convs {
		infos[i] = conversationInfo{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleConversationResource returns the turns of one conversation.
func (s *Server) handleConversationResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Conversations == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id := extractConversationID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	_, turns, err := s.ports.Conversations.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	infos := make([]turnInfo, len(turns))
	for i, t := range turns {
		infos[i] = turnInfo{Role: t.Role.String(), Content: t.Content, Timestamp: t.Timestamp}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleSuggestionsResource returns stored recipe suggestions.
func (s *Server) handleSuggestionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	suggestions := []string{}
	if s.ports.Conversations != nil {
		stored, err := s.ports.Conversations.Suggestions(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing suggestions: %w", err)
		}
		if stored != nil {
			suggestions = stored
		}
	}
	return jsonResource(req.Params.URI, suggestions)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractConversationID extracts the ID from nutrigenie://conversations/{conversationId}.
func extractConversationID(uri string) string {
	const prefix = uriScheme + "conversations/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
