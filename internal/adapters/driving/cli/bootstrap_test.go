package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

func TestBootstrapCmd_Use(t *testing.T) {
	assert.Equal(t, "bootstrap", bootstrapCmd.Use)
}

func TestBootstrapCmd_ReportsInserted(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "bootstrap")

	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 12 recipes.")
}

func TestBootstrapCmd_AlreadyPopulated(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()
	stub.bootstrapper.inserted = 0

	out, err := execute(t, "bootstrap")

	require.NoError(t, err)
	assert.Contains(t, out, "Vector index already populated.")
}

func TestBootstrapCmd_Error(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()
	stub.bootstrapper.err = domain.ErrDatasetUnavailable

	_, err := execute(t, "bootstrap")

	assert.ErrorIs(t, err, domain.ErrDatasetUnavailable)
}
