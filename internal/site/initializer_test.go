package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_WritesPlaceholder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")

	created, err := NewInitializer(dir, "").Initialize()
	require.NoError(t, err)
	assert.True(t, created)

	data, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>Portfolio</title>")
}

func TestInitialize_KeepsExistingIndex(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "home.html")
	require.NoError(t, os.WriteFile(index, []byte("built"), 0644))

	created, err := NewInitializer(dir, "home.html").Initialize()
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(index)
	require.NoError(t, err)
	assert.Equal(t, "built", string(data))
}
