package json

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteThenReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "sample.json")

	require.NoError(t, NewWriter().WriteJSON(path, sample{Name: "a", Count: 2}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{\n  \"name\": \"a\",\n  \"count\": 2\n}\n", string(raw))

	var got sample
	require.NoError(t, NewReader().ReadJSON(path, &got))
	require.Equal(t, sample{Name: "a", Count: 2}, got)
}

func TestWriteBytesTruncatesAndAppliesMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	w := NewWriter()

	require.NoError(t, w.WriteBytes(path, []byte("a longer first payload"), 0o600))
	require.NoError(t, w.WriteBytes(path, []byte("short"), 0o600))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "short", string(raw))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestReadJSONErrors(t *testing.T) {
	dir := t.TempDir()

	var target sample
	require.ErrorContains(t, NewReader().ReadJSON(filepath.Join(dir, "missing.json"), &target), "failed to read file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	require.ErrorContains(t, NewReader().ReadJSON(bad, &target), "failed to unmarshal JSON")
}
