package rsync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireRsync(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("rsync"); err != nil {
		t.Skip("rsync binary not available in this environment")
	}
}

func TestPutLocalCopiesAndDeletesExtraFiles(t *testing.T) {
	requireRsync(t)

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte("hello"), 0o644))

	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.html"), []byte("old"), 0o644))

	require.NoError(t, Put(context.Background(), src, dest, ""))

	body, err := os.ReadFile(filepath.Join(dest, "index.html"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))

	_, err = os.Stat(filepath.Join(dest, "stale.html"))
	require.True(t, os.IsNotExist(err), "rsync --delete should remove files absent from src")
}

func TestClientPutAdaptsToTrustedHostPublisher(t *testing.T) {
	requireRsync(t)

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("data"), 0o644))
	dest := t.TempDir()

	c := Client{}
	require.NoError(t, c.Put(context.Background(), src, dest, ""))
	require.FileExists(t, filepath.Join(dest, "a.txt"))
}
