package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "usr", "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "usr", "bin", "hello"), []byte("bin"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "hello.conf"), []byte("conf"), 0o644))
}

func TestCompressExtractRoundTrip_Gzip(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)

	out := filepath.Join(t.TempDir(), "hello-1.0.tar.gz")
	d := Default{}
	require.NoError(t, d.Compress(context.Background(), src, out, "gz"))

	dest := t.TempDir()
	require.NoError(t, d.Extract(context.Background(), out, dest))

	got, err := os.ReadFile(filepath.Join(dest, "usr", "bin", "hello"))
	require.NoError(t, err)
	assert.Equal(t, "bin", string(got))

	got, err = os.ReadFile(filepath.Join(dest, "etc", "hello.conf"))
	require.NoError(t, err)
	assert.Equal(t, "conf", string(got))
}

func TestCompressExtractRoundTrip_XZ(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)

	out := filepath.Join(t.TempDir(), "hello-1.0.tar.xz")
	d := Default{}
	require.NoError(t, d.Compress(context.Background(), src, out, "xz"))

	dest := t.TempDir()
	require.NoError(t, d.Extract(context.Background(), out, dest))

	got, err := os.ReadFile(filepath.Join(dest, "usr", "bin", "hello"))
	require.NoError(t, err)
	assert.Equal(t, "bin", string(got))
}

func TestExtract_UnknownExtension(t *testing.T) {
	d := Default{}
	err := d.Extract(context.Background(), "/tmp/archive.rar", t.TempDir())
	require.Error(t, err)
}

func TestTableOfContents_GzipListsRegularFilesOnly(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)

	out := filepath.Join(t.TempDir(), "hello-1.0.tar.gz")
	require.NoError(t, (Default{}).Compress(context.Background(), src, out, "gz"))

	entries, err := TableOfContents(out, "gz")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/usr/bin/hello", "/etc/hello.conf"}, entries)
}

func TestNormalizeAbs(t *testing.T) {
	assert.Equal(t, "/usr/bin/hello", normalizeAbs("./usr/bin/hello"))
	assert.Equal(t, "/usr/bin/hello", normalizeAbs("/usr/bin/hello"))
	assert.Equal(t, "/usr/bin/hello", normalizeAbs("usr/bin/hello"))
}

func TestPackagePath(t *testing.T) {
	assert.Equal(t, "/pkgout/hello-1.0.tar.xz", PackagePath("/pkgout/", "hello", "1.0", "xz"))
	assert.Equal(t, "/pkgout/hello-1.0.tar.xz", PackagePath("/pkgout", "hello", "1.0", "xz"))
}

func TestSafeJoin_RejectsPathEscape(t *testing.T) {
	_, err := safeJoin(t.TempDir(), "../../etc/passwd")
	require.Error(t, err)
}
