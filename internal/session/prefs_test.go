package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs")

	p, err := OpenPrefs(path)
	require.NoError(t, err)
	assert.False(t, p.WasAuthenticated())
	assert.Empty(t, p.Theme())

	require.NoError(t, p.SetAuthenticated(true))
	require.NoError(t, p.SetTheme("dark"))

	// A fresh open sees the persisted values, like the next app start.
	reopened, err := OpenPrefs(path)
	require.NoError(t, err)
	assert.True(t, reopened.WasAuthenticated())
	assert.Equal(t, "dark", reopened.Theme())
}

func TestPrefsToleratesMissingFile(t *testing.T) {
	p, err := OpenPrefs(filepath.Join(t.TempDir(), "nonexistent"))
	require.NoError(t, err)
	assert.False(t, p.WasAuthenticated())
}

func TestPrefsSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs")
	require.NoError(t, os.WriteFile(path, []byte("garbage line\ntheme=light\n"), 0o600))

	p, err := OpenPrefs(path)
	require.NoError(t, err)
	assert.Equal(t, "light", p.Theme())
}
