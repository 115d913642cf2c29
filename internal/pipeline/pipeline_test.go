package pipeline

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcanata061/pbuild/internal/config"
	"github.com/fcanata061/pbuild/internal/recipe"
	"github.com/fcanata061/pbuild/internal/registry"
)

func buildSourceTarball(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "hello-1.0.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	const content = "#!/bin/sh\necho hello\n"
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "hello-1.0/run.sh", Mode: 0o755, Size: int64(len(content))}))
	_, err = tw.Write([]byte(content))
	require.NoError(t, err)

	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return path
}

func TestBuildAndInstall_EndToEnd(t *testing.T) {
	sourcesDir := t.TempDir()
	tarball := buildSourceTarball(t, t.TempDir())
	tarballBytes, err := os.ReadFile(tarball)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(tarballBytes)
	}))
	defer srv.Close()

	r := &recipe.Recipe{
		Name:       "hello",
		Version:    "1.0",
		SourceURL:  srv.URL + "/hello-1.0.tar.gz",
		VCS:        recipe.VCSHTTP,
		InstallCmd: "mkdir -p $DESTDIR/usr/bin && cp run.sh $DESTDIR/usr/bin/hello",
	}

	cfg := &config.Config{
		TmpRoot:     t.TempDir(),
		Sources:     sourcesDir,
		PkgOut:      t.TempDir(),
		Registro:    t.TempDir(),
		Jobs:        1,
		Compression: "gz",
	}

	reg, err := registry.Open(cfg.Registro)
	require.NoError(t, err)

	root := t.TempDir()
	pkgPath, err := BuildAndInstall(context.Background(), cfg, reg, r, Options{Root: root})
	require.NoError(t, err)
	assert.FileExists(t, pkgPath)

	_, err = os.Stat(filepath.Join(root, "usr", "bin", "hello"))
	assert.NoError(t, err)

	manifest, err := reg.GetManifest("hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/hello"}, manifest)

	meta, err := reg.GetMetadata("hello")
	require.NoError(t, err)
	assert.Equal(t, "1.0", meta.Version)
}
