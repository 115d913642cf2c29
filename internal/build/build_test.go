package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/recipe"
)

func TestRun_BuildCheckInstallPipeline(t *testing.T) {
	sourceTop := t.TempDir()
	stageRoot := t.TempDir()
	var out bytes.Buffer

	r := &recipe.Recipe{
		Name:       "hello",
		Version:    "1.0",
		BuildCmd:   "echo building > build.out",
		CheckCmd:   "test -f build.out",
		InstallCmd: "mkdir -p $DESTDIR/usr/bin && cp build.out $DESTDIR/usr/bin/hello",
	}
	bc := &Context{Recipe: r, SourceTop: sourceTop, StageRoot: stageRoot, Jobs: 1, Out: &out}

	anchor, err := Run(context.Background(), bc)
	require.NoError(t, err)
	assert.False(t, anchor.At.IsZero())

	_, err = os.Stat(filepath.Join(stageRoot, "usr", "bin", "hello"))
	assert.NoError(t, err)
}

func TestRun_FailingBuildIsBuildFailed(t *testing.T) {
	sourceTop := t.TempDir()
	var out bytes.Buffer

	r := &recipe.Recipe{Name: "hello", Version: "1.0", BuildCmd: "exit 1", InstallCmd: "true"}
	bc := &Context{Recipe: r, SourceTop: sourceTop, StageRoot: t.TempDir(), Jobs: 1, Out: &out}

	_, err := Run(context.Background(), bc)
	require.Error(t, err)
	assert.True(t, pkgerrors.As(err, pkgerrors.BuildFailed))
}

func TestRun_PermissiveCheckDemotesFailureToWarning(t *testing.T) {
	sourceTop := t.TempDir()
	var out bytes.Buffer

	r := &recipe.Recipe{Name: "hello", Version: "1.0", CheckCmd: "exit 1", InstallCmd: "true"}
	bc := &Context{Recipe: r, SourceTop: sourceTop, StageRoot: t.TempDir(), Jobs: 1, Out: &out, PermissiveCheck: true}

	_, err := Run(context.Background(), bc)
	require.NoError(t, err)
}

func TestRun_StrictCheckFailureIsTestFailed(t *testing.T) {
	sourceTop := t.TempDir()
	var out bytes.Buffer

	r := &recipe.Recipe{Name: "hello", Version: "1.0", CheckCmd: "exit 1", InstallCmd: "true"}
	bc := &Context{Recipe: r, SourceTop: sourceTop, StageRoot: t.TempDir(), Jobs: 1, Out: &out}

	_, err := Run(context.Background(), bc)
	require.Error(t, err)
	assert.True(t, pkgerrors.As(err, pkgerrors.TestFailed))
}

func TestComputeMakeflags(t *testing.T) {
	os.Unsetenv("MAKEFLAGS")
	assert.Equal(t, "-j4", computeMakeflags("", 4))
	assert.Equal(t, "-j99", computeMakeflags("-j99", 4))
}
