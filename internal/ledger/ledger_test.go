package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deleted.jsonl")
	l, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, path
}

func TestOpenMissingFile(t *testing.T) {
	l, path := openTemp(t)
	require.Equal(t, 0, l.Len())
	require.False(t, l.Contains("anything"))

	// The file exists after Open so a first run can append immediately.
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestRecordAndContains(t *testing.T) {
	l, _ := openTemp(t)

	require.NoError(t, l.Record("conv-a", "run-1"))
	require.True(t, l.Contains("conv-a"))
	require.False(t, l.Contains("conv-b"))
	require.Equal(t, 1, l.Len())
}

func TestRecordPersistsAcrossReopen(t *testing.T) {
	l, path := openTemp(t)
	require.NoError(t, l.Record("conv-a", "run-1"))
	require.NoError(t, l.Record("conv-b", "run-1"))
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.True(t, reopened.Contains("conv-a"))
	require.True(t, reopened.Contains("conv-b"))
	require.Equal(t, 2, reopened.Len())
}

func TestRecordTwiceIsNoop(t *testing.T) {
	l, path := openTemp(t)
	require.NoError(t, l.Record("conv-a", "run-1"))
	require.NoError(t, l.Record("conv-a", "run-2"))
	require.Equal(t, 1, l.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
}

func TestRecordEmptyID(t *testing.T) {
	l, _ := openTemp(t)
	require.Error(t, l.Record("", "run-1"))
}

func TestTruncatedFinalLineIsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deleted.jsonl")
	content := `{"id":"conv-a","deletedAt":"2026-01-02T03:04:05Z"}` + "\n" +
		`{"id":"conv-b","dele` // write cut short by a crash
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	require.True(t, l.Contains("conv-a"))
	require.False(t, l.Contains("conv-b"))
	require.Equal(t, 1, l.Len())

	// Appending after a truncated line must still produce a loadable file.
	require.NoError(t, l.Record("conv-c", "run-1"))
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.True(t, reopened.Contains("conv-a"))
	require.True(t, reopened.Contains("conv-c"))
}

func TestLegacyArrayMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deleted.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`["conv-a", "conv-b"]`), 0644))

	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	require.True(t, l.Contains("conv-a"))
	require.True(t, l.Contains("conv-b"))
	require.Equal(t, 2, l.Len())

	// The file is rewritten in line format.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var e Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		require.NotEmpty(t, e.ID)
	}
}

func TestLegacyMalformedArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deleted.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`[not json`), 0644))

	_, err := Open(path)
	require.Error(t, err)
}
