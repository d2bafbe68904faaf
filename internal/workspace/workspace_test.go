package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDir(t *testing.T) {
	ws, err := New(filepath.Join(t.TempDir(), "workspace"))
	require.NoError(t, err)

	userID := uuid.New()
	dir, err := ws.UserDir(userID)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(ws.Root(), userID.String()), dir)

	// Idempotent on repeat calls.
	again, err := ws.UserDir(userID)
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestResolve(t *testing.T) {
	ws, err := New(filepath.Join(t.TempDir(), "workspace"))
	require.NoError(t, err)
	userID := uuid.New()

	path, err := ws.Resolve(userID, "datasets/clinvar.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.Root(), userID.String(), "datasets", "clinvar.csv"), path)

	path, err = ws.Resolve(userID, ".")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.Root(), userID.String()), path)

	for _, rel := range []string{"..", "../other-user/file.csv", "a/../../escape.csv"} {
		_, err := ws.Resolve(userID, rel)
		require.Error(t, err, "expected %q to be refused", rel)
	}
}

func TestJanitorSweep(t *testing.T) {
	ws, err := New(filepath.Join(t.TempDir(), "workspace"))
	require.NoError(t, err)

	stale := filepath.Join(ws.ScratchRoot(), "varscore-job-stale")
	fresh := filepath.Join(ws.ScratchRoot(), "varscore-job-fresh")
	require.NoError(t, os.MkdirAll(stale, 0755))
	require.NoError(t, os.MkdirAll(fresh, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "variants.tsv.gz"), []byte("x"), 0644))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	j := NewJanitor(ws, DefaultScratchMaxAge)
	require.NoError(t, j.Sweep())

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestJanitorStartStop(t *testing.T) {
	ws, err := New(filepath.Join(t.TempDir(), "workspace"))
	require.NoError(t, err)

	j := NewJanitor(ws, time.Hour)
	j.Start()
	j.Stop()
}
