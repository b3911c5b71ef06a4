package tokens

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.rs", []byte("honk!(x)"), 0o644))

	var out bytes.Buffer
	cmd := newCommand(fs)
	cmd.SetArgs([]string{"/a.rs"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "ident honk [0-4]\n")
	assert.Contains(t, out.String(), "group parenthesis () [5-8]\n")
	assert.Contains(t, out.String(), "  ident x [6-7]\n")
}

func TestTokensErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.rs", []byte("(]"), 0o644))

	h := &Handler{fs: fs}
	assert.Error(t, h.Run(context.Background(), "/bad.rs", &bytes.Buffer{}))
	assert.Error(t, h.Run(context.Background(), "/missing.rs", &bytes.Buffer{}))
}
