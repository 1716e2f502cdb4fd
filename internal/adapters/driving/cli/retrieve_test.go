package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

func TestRetrieveCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "retrieve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestRetrieveCmd_HasTopKFlag(t *testing.T) {
	flag := retrieveCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag, "top-k flag should exist")
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "3", flag.DefValue)
}

func TestRetrieveCmd_Table(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "retrieve", "salade fraîche")

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTopK, stub.retrieval.lastTopK)
	assert.Contains(t, out, "[1] Salade de quinoa (0.91)")
	assert.Contains(t, out, "Préparation : 20 min")
	assert.Contains(t, out, "Ingrédients : quinoa, concombre")
	assert.Contains(t, out, "[2] Soupe de lentilles (0.74)")
}

func TestRetrieveCmd_TopK(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()
	defer func() { retrieveTopK = domain.DefaultTopK }()

	out, err := execute(t, "retrieve", "-k", "1", "salade")

	require.NoError(t, err)
	assert.Equal(t, 1, stub.retrieval.lastTopK)
	assert.NotContains(t, out, "Soupe de lentilles")
}

func TestRetrieveCmd_NoResults(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()
	stub.retrieval.hits = nil

	out, err := execute(t, "retrieve", "salade")

	require.NoError(t, err)
	assert.Contains(t, out, "No recipes found.")
}

func TestRetrieveCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer func() { retrieveJSON = false }()

	out, err := execute(t, "retrieve", "--json", "salade")
	require.NoError(t, err)

	var hits []recipeHit
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.Len(t, hits, 2)
	assert.Equal(t, "Salade de quinoa", hits[0].Recipe.Title)
	assert.InDelta(t, 0.91, hits[0].Score, 1e-9)
}
