package capture_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/clown/pkg/capture"
	"github.com/walteh/clown/pkg/tokentree"
)

func args(t *testing.T, src string) tokentree.Group {
	t.Helper()
	s := stream(t, "("+src+")")
	require.Len(t, s, 1)
	return s[0].(tokentree.Group)
}

func TestTableRegister(t *testing.T) {
	table := capture.NewTable()

	marks := []struct {
		kind capture.Kind
		arg  string
		want string
	}{
		{capture.Clone, "a", "__honk_0"},
		{capture.Move, "b.c", "__slip_0"},
		{capture.Clone, "d()", "__honk_1"},
		{capture.Clone, "&e", "__honk_2"},
		{capture.Move, "f", "__slip_1"},
	}

	for _, m := range marks {
		name, err := table.Register(capture.Marker{Kind: m.kind, Args: args(t, m.arg)})
		require.NoError(t, err)
		assert.Equal(t, m.want, name.Name)

		b, ok := table.Lookup(m.want)
		require.True(t, ok)
		assert.Equal(t, m.kind, b.Kind)
	}

	assert.Equal(t, 5, table.Len())
	require.Len(t, table.Bindings(capture.Clone), 3)
	require.Len(t, table.Bindings(capture.Move), 2)
	assert.Equal(t, "__honk_1", table.Bindings(capture.Clone)[1].Name.Name)
}

func TestTableRegisterRejectsBadArgument(t *testing.T) {
	table := capture.NewTable()

	_, err := table.Register(capture.Marker{Kind: capture.Clone, Args: args(t, "a, b")})
	require.Error(t, err)
	assert.Zero(t, table.Len())

	// a failed registration does not consume a name
	name, err := table.Register(capture.Marker{Kind: capture.Clone, Args: args(t, "a")})
	require.NoError(t, err)
	assert.Equal(t, "__honk_0", name.Name)
}

func TestTableBindingsIsACopy(t *testing.T) {
	table := capture.NewTable()
	_, err := table.Register(capture.Marker{Kind: capture.Move, Args: args(t, "x")})
	require.NoError(t, err)

	got := table.Bindings(capture.Move)
	got[0] = nil

	assert.NotNil(t, table.Bindings(capture.Move)[0])
}
