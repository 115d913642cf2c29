package provision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcanata061/pbuild/internal/fetch"
	"github.com/fcanata061/pbuild/internal/recipe"
)

type fakeExtractor struct {
	calls int
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, archivePath, destDir string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.MkdirAll(filepath.Join(destDir, "hello-1.0"), 0o755)
}

type fakeVerifier struct {
	ok  bool
	err error
}

func (f fakeVerifier) Verify(path, want string) (bool, error) { return f.ok, f.err }

func TestProvision_FetchVerifyExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tarball-bytes"))
	}))
	defer srv.Close()

	r := &recipe.Recipe{
		Name:      "hello",
		Version:   "1.0",
		SourceURL: srv.URL + "/hello-1.0.tar.gz",
		Checksum:  "deadbeef",
		VCS:       recipe.VCSHTTP,
	}

	extractor := &fakeExtractor{}
	p := &Provisioner{
		SourcesCache: t.TempDir(),
		Extractor:    extractor,
		Verifier:     fakeVerifier{ok: true},
		HTTP:         fetch.NewHTTP(),
	}

	workDir := t.TempDir()
	res, err := p.Provision(context.Background(), r, workDir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "src", "hello-1.0"), res.SourceTop)
	assert.Equal(t, 1, extractor.calls)
}

func TestProvision_ChecksumMismatchAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tarball-bytes"))
	}))
	defer srv.Close()

	r := &recipe.Recipe{
		Name:      "hello",
		Version:   "1.0",
		SourceURL: srv.URL + "/hello-1.0.tar.gz",
		Checksum:  "deadbeef",
		VCS:       recipe.VCSHTTP,
	}

	extractor := &fakeExtractor{}
	p := &Provisioner{
		SourcesCache: t.TempDir(),
		Extractor:    extractor,
		Verifier:     fakeVerifier{ok: false},
		HTTP:         fetch.NewHTTP(),
	}

	_, err := p.Provision(context.Background(), r, t.TempDir(), false)
	require.Error(t, err)
	assert.Equal(t, 0, extractor.calls)
}

func TestDeduceSourceDir(t *testing.T) {
	assert.Equal(t, "hello-1.0", deduceSourceDir("/cache/hello-1.0.tar.gz", recipe.VCSHTTP))
	assert.Equal(t, "hello-1.0", deduceSourceDir("/cache/hello-1.0.tar", recipe.VCSGit))
}
