package remove

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/registry"
)

func TestRemove_DeletesManifestFilesAndPrunesEmptyDirs(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "usr", "share", "hello", "locale")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	file := filepath.Join(nested, "hello.mo")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	// a sibling file that must survive because it belongs to another package
	siblingDir := filepath.Join(root, "usr", "share", "hello")
	sibling := filepath.Join(siblingDir, "keep.txt")
	require.NoError(t, os.WriteFile(sibling, []byte("keep"), 0o644))

	regDir := t.TempDir()
	reg, err := registry.Open(regDir)
	require.NoError(t, err)
	require.NoError(t, reg.PutMetadata(registry.Metadata{Name: "hello"}))
	require.NoError(t, reg.PutManifest("hello", []string{file}))

	res, err := Remove(reg, "hello", nil)
	require.NoError(t, err)
	assert.Contains(t, res.RemovedFiles, file)

	_, statErr := os.Stat(file)
	assert.True(t, os.IsNotExist(statErr))
	// nested locale dir is now empty and must be pruned
	_, statErr = os.Stat(nested)
	assert.True(t, os.IsNotExist(statErr))
	// sibling file/dir must survive
	_, statErr = os.Stat(sibling)
	assert.NoError(t, statErr)

	assert.False(t, reg.Has("hello"))
}

func TestRemove_MissingFileIsWarningNotError(t *testing.T) {
	root := t.TempDir()
	ghostFile := filepath.Join(root, "usr", "bin", "ghost")

	reg, err := registry.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, reg.PutMetadata(registry.Metadata{Name: "ghost"}))
	require.NoError(t, reg.PutManifest("ghost", []string{ghostFile}))

	res, err := Remove(reg, "ghost", nil)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, ghostFile, res.Warnings[0].Path)
	assert.Empty(t, res.RemovedFiles)
}

func TestRemove_UnknownPackage(t *testing.T) {
	reg, err := registry.Open(t.TempDir())
	require.NoError(t, err)

	_, err = Remove(reg, "ghost", nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.As(err, pkgerrors.UnknownPackage))
}
