package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_StreamsOutputAndMergesEnv(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	err := Run(context.Background(), "echo $GREETING > marker; pwd", map[string]string{"GREETING": "hi"}, dir, &out)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "marker"))
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(got))
	assert.Contains(t, out.String(), dir)
}

func TestRun_EmptyCommandIsNoop(t *testing.T) {
	assert.NoError(t, Run(context.Background(), "", nil, t.TempDir(), nil))
}

func TestRunWith_PrependsPrefix(t *testing.T) {
	var out bytes.Buffer
	err := RunWith(context.Background(), []string{"env", "PREFIXED=yes"}, "echo $PREFIXED", nil, t.TempDir(), &out)
	require.NoError(t, err)
	assert.Equal(t, "yes\n", out.String())
}
