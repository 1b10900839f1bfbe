package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	m, err := Build(entries(5))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, Save(m, "/data/photos", path))

	loaded, dir, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/photos", dir)
	assert.Equal(t, m.Root, loaded.Root)
	assert.Equal(t, m.Entries, loaded.Entries)

	ok, err := loaded.Verify(m.Entries[2])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoad_RootMismatch(t *testing.T) {
	m, err := Build(entries(3))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, Save(m, "/data", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), m.Entries[0].Digest, m.Entries[1].Digest, 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0644))

	_, _, err = Load(path)
	assert.ErrorContains(t, err, "root mismatch")
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := Load("/nonexistent/manifest.json")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, _, err = Load(path)
	assert.Error(t, err)
}
