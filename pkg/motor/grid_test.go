package motor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGridShape(t *testing.T) {
	l := Limits{MaxArrays: 2, MaxMotors: 3}
	g := NewGrid(l)
	require.NoError(t, g.CheckShape(l))
	require.Error(t, g[:1].CheckShape(l))
	g[1] = g[1][:2]
	require.Error(t, g.CheckShape(l))
}

func TestGridRows(t *testing.T) {
	l := Limits{MaxArrays: 2, MaxMotors: 2}
	src := Grid{{1, 2}, {3, 4}}
	g := NewGrid(l)
	g.CopyRow(src, 1)
	require.Equal(t, Grid{{0, 0}, {3, 4}}, g)

	c := src.Clone()
	c.ZeroRow(0)
	require.Equal(t, Grid{{0, 0}, {3, 4}}, c)
	require.Equal(t, Grid{{1, 2}, {3, 4}}, src)
}

func TestLimitsValidate(t *testing.T) {
	require.NoError(t, DefaultLimits.Validate())
	require.Error(t, Limits{MaxArrays: 0, MaxMotors: 1}.Validate())
	require.Error(t, Limits{MaxArrays: 1, MaxMotors: 0}.Validate())
	require.Error(t, Limits{MaxArrays: 1, MaxMotors: 1, MaxTurns: -1}.Validate())
}
