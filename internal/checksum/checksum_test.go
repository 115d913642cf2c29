package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256_Verify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	// sha256("hello world")
	const want = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	ok, err := SHA256{}.Verify(path, want)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = SHA256{}.Verify(path, "deadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSHA256_VerifyCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	const want = "B94D27B9934D3E08A52E52D7DA7DABFAC484EFE37A5380EE9088F7ACE2EFCDE9"
	ok, err := SHA256{}.Verify(path, want)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSHA256_VerifyMissingFile(t *testing.T) {
	_, err := SHA256{}.Verify(filepath.Join(t.TempDir(), "missing"), "deadbeef")
	assert.Error(t, err)
}
