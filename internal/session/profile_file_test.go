package session

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileProfileStore_SaveLoadClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "user.json")
	fs := NewFileProfileStore(path)

	p, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, p)

	require.NoError(t, fs.Probe(ctx))
	require.NoError(t, fs.Save(ctx, adminProfile))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	p, err = fs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, &adminProfile, p)

	require.NoError(t, fs.Clear(ctx))
	require.NoError(t, fs.Clear(ctx), "second clear is a no-op")

	p, err = fs.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestFileProfileStore_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "user.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileProfileStore(path).Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode")
}

func TestFileProfileStore_ProbeFailsOnFileAsDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	fs := NewFileProfileStore(filepath.Join(blocker, "user.json"))
	require.Error(t, fs.Probe(context.Background()))
}
