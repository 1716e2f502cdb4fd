package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve_recipes tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"what the user is looking for, in natural language"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of recipes to return (default 3)"`
}

// RetrieveOutput is the output schema for the retrieve_recipes tool.
type RetrieveOutput struct {
	Recipes []RecipeOutput `json:"recipes"`
	Count   int            `json:"count"`
}

// RecipeOutput is one retrieved recipe.
type RecipeOutput struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	PreparationTime string   `json:"preparation_time,omitempty"`
	Ingredients     []string `json:"ingredients,omitempty"`
	DietTags        []string `json:"diet_tags,omitempty"`
	Score           float64  `json:"score"`
}

// ClassifyInput is the input schema for the classify_query tool.
type ClassifyInput struct {
	Query string `json:"query" jsonschema:"the user message to check"`
}

// ClassifyOutput is the output schema for the classify_query tool.
type ClassifyOutput struct {
	SupportedLanguage bool    `json:"supported_language"`
	Safe              bool    `json:"safe"`
	UnsafeScore       float64 `json:"unsafe_score"`
	Allowed           bool    `json:"allowed"`
}

// TextInput is the input schema for the text helper tools.
type TextInput struct {
	Text string `json:"text" jsonschema:"the text to process"`
}

// TitleOutput is the output schema for the summarize_title tool.
type TitleOutput struct {
	Title string `json:"title"`
}

// RecipeTitlesOutput is the output schema for the extract_recipe_titles tool.
type RecipeTitlesOutput struct {
	Titles []string `json:"titles"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_recipes",
		Description: "Find the recipes from the reference dataset most relevant to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_query",
		Description: "Check a user message against the language and safety guardrails",
	}, s.handleClassify)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summarize_title",
		Description: "Summarise a message into a conversation title of at most 30 characters",
	}, s.handleSummarizeTitle)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_recipe_titles",
		Description: "List the recipe titles mentioned in an answer",
	}, s.handleExtractRecipeTitles)
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, RetrieveOutput{}, errors.New("query is required")
	}

	hits, err := s.ports.Retrieval.RetrieveScored(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Recipes: make([]RecipeOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		doc := hits[i].Entry.Document
		output.Recipes[i] = RecipeOutput{
			ID:              doc.ID,
			Title:           doc.Title,
			PreparationTime: doc.PreparationTime,
			Ingredients:     doc.Ingredients,
			DietTags:        doc.DietTags,
			Score:           hits[i].Score,
		}
	}

	return nil, output, nil
}

func (s *Server) handleClassify(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	if s.ports.Safety == nil {
		return nil, ClassifyOutput{}, errNotConfigured
	}

	verdict := domain.SafetyVerdict{SupportedLanguage: true}
	if s.ports.Language != nil {
		verdict.SupportedLanguage = s.ports.Language.IsSupported(input.Query)
	}

	score, err := s.ports.Safety.Score(ctx, input.Query)
	if err != nil {
		return nil, ClassifyOutput{}, err
	}
	verdict.Safe, err = s.ports.Safety.Predict(ctx, input.Query)
	if err != nil {
		return nil, ClassifyOutput{}, err
	}

	return nil, ClassifyOutput{
		SupportedLanguage: verdict.SupportedLanguage,
		Safe:              verdict.Safe,
		UnsafeScore:       score,
		Allowed:           verdict.Allowed(),
	}, nil
}

func (s *Server) handleSummarizeTitle(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TextInput,
) (*mcp.CallToolResult, TitleOutput, error) {
	if s.ports.Titles == nil {
		return nil, TitleOutput{}, errNotConfigured
	}
	title, err := s.ports.Titles.SummarizeTitle(ctx, input.Text)
	if err != nil {
		return nil, TitleOutput{}, err
	}
	return nil, TitleOutput{Title: title}, nil
}

func (s *Server) handleExtractRecipeTitles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TextInput,
) (*mcp.CallToolResult, RecipeTitlesOutput, error) {
	if s.ports.Titles == nil {
		return nil, RecipeTitlesOutput{}, errNotConfigured
	}
	titles, err := s.ports.Titles.ExtractRecipeTitles(ctx, input.Text)
	if err != nil {
		return nil, RecipeTitlesOutput{}, err
	}
	if titles == nil {
		titles = []string{}
	}
	return nil, RecipeTitlesOutput{Titles: titles}, nil
}
