package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInitializesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	config, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", config.BackendURL)
	assert.Equal(t, 30*time.Second, config.RequestTimeout())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestParseMergesDefaultsIntoPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend_url": "https://rag.example.com/"}`), 0644))

	config, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "https://rag.example.com", config.BackendURL)
	assert.Equal(t, 30, config.RequestTimeoutSeconds)
}

func TestParseRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := Parse(path)
	assert.Error(t, err)
}
