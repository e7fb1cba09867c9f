package checksum

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	sum, err := Sum(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)

	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))
	fileSum, err := SumFile(path)
	require.NoError(t, err)
	assert.Equal(t, sum, fileSum)

	_, err = SumFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestMatch_ReportsFirstSighting(t *testing.T) {
	cm := NewChecksumMatcher(0)
	t0 := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	_, dup, err := cm.Match("s1", "run-1", t0)
	require.NoError(t, err)
	assert.False(t, dup)

	prev, dup, err := cm.Match("s1", "run-2", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, Sighting{RunID: "run-1", At: t0}, prev)

	_, _, err = cm.Match("", "run-3", t0)
	assert.Error(t, err)
}

func TestMatch_EvictsOldest(t *testing.T) {
	cm := NewChecksumMatcher(2)
	t0 := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	cm.Match("a", "r1", t0)
	cm.Match("b", "r2", t0.Add(time.Minute))
	cm.Match("c", "r3", t0.Add(2*time.Minute))

	_, dup, _ := cm.Match("a", "r4", t0.Add(3*time.Minute))
	assert.False(t, dup, "oldest fingerprint was evicted")
	_, dup, _ = cm.Match("c", "r5", t0.Add(4*time.Minute))
	assert.True(t, dup)
}
