package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanun-labs/qanun-cli/internal/adapters/driven/storage/sqlite"
)

func TestDataDirectory_FlagOverride(t *testing.T) {
	dir := t.TempDir()
	dataDir = dir
	t.Cleanup(func() { dataDir = "" })

	got, err := dataDirectory()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestDataDirectory_Default(t *testing.T) {
	dataDir = ""

	got, err := dataDirectory()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".qanun", "data"), got)
}

func TestDataDirectory_StoreOpensFileInsideIt(t *testing.T) {
	dir := t.TempDir()
	dataDir = dir
	t.Cleanup(func() { dataDir = "" })

	got, err := dataDirectory()
	require.NoError(t, err)

	store, err := sqlite.NewStore(got)
	require.NoError(t, err)
	defer store.Close()

	// The database must be a file directly under the data directory,
	// not nested inside a directory named like the database file.
	assert.Equal(t, filepath.Join(dir, "corpus.db"), store.Path())
	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}
