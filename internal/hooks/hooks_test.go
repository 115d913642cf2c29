package hooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirEmit_RunsExecutableHooksInOrder(t *testing.T) {
	root := t.TempDir()
	hookDir := filepath.Join(root, "remove.d")
	require.NoError(t, os.MkdirAll(hookDir, 0o755))

	marker := filepath.Join(root, "marker")
	script := "#!/bin/sh\necho -n \"$1\" >> " + marker + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(hookDir, "10-log"), []byte(script), 0o755))
	second := "#!/bin/sh\necho -n \"+$1\" >> " + marker + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(hookDir, "20-log"), []byte(second), 0o755))
	// non-executable entries are skipped
	require.NoError(t, os.WriteFile(filepath.Join(hookDir, "README"), []byte("not a hook"), 0o644))

	d := Dir{Root: root}
	err := d.Emit(RemovedEvent{Name: "hello"})
	require.NoError(t, err)

	got, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "hello+hello", string(got))
}

func TestDirEmit_MissingDirIsNotAnError(t *testing.T) {
	d := Dir{Root: t.TempDir()}
	assert.NoError(t, d.Emit(RemovedEvent{Name: "hello"}))
}

func TestDirEmit_EmptyRootIsNoop(t *testing.T) {
	d := Dir{}
	assert.NoError(t, d.Emit(RemovedEvent{Name: "hello"}))
}

func TestDirEmit_FailingHookReturnsWarning(t *testing.T) {
	root := t.TempDir()
	hookDir := filepath.Join(root, "remove.d")
	require.NoError(t, os.MkdirAll(hookDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hookDir, "10-fail"), []byte("#!/bin/sh\nexit 1\n"), 0o755))

	d := Dir{Root: root}
	err := d.Emit(RemovedEvent{Name: "hello"})
	assert.Error(t, err)
}
