package store

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ceiling.go/pkg/motor"
)

var testLimits = motor.Limits{MaxArrays: 2, MaxMotors: 3, MaxTurns: 10}

func tempStore(t *testing.T) *CSV {
	dir, err := ioutil.TempDir("", "store")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return &CSV{
		Limits:      testLimits,
		DesiredPath: filepath.Join(dir, "desired-state.csv"),
		CurrentPath: filepath.Join(dir, "current-state.csv"),
	}
}

func TestLint(t *testing.T) {
	records := [][]string{
		{"3", " 10", "11", "extra"},
		{"-1", "x", ""},
		{"4", "4", "4"},
	}
	require.Equal(t, motor.Grid{{3, 10, 0}, {0, 0, 0}}, Lint(records, testLimits))
	require.Equal(t, motor.Grid{{0, 0, 0}, {0, 0, 0}}, Lint(nil, testLimits))
	require.Equal(t, motor.Grid{{5, 0, 0}, {0, 0, 0}}, Lint([][]string{{"5"}}, testLimits))
}

func TestFormat(t *testing.T) {
	require.Equal(t, "\"1\",\"0\",\"2\"\r\n\"0\",\"0\",\"0\"\r\n", string(Format(motor.Grid{{1, 0, 2}, {0, 0, 0}})))
}

func TestLoadLintsAndRewrites(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, ioutil.WriteFile(s.DesiredPath, []byte("1,2,99\n\"7\"\n"), 0644))

	g, err := s.Load(s.DesiredPath)
	require.NoError(t, err)
	require.Equal(t, motor.Grid{{1, 2, 0}, {7, 0, 0}}, g)

	data, err := ioutil.ReadFile(s.DesiredPath)
	require.NoError(t, err)
	require.Equal(t, string(Format(g)), string(data))

	again, err := s.Load(s.DesiredPath)
	require.NoError(t, err)
	require.Equal(t, g, again)
}

func TestLoadMissing(t *testing.T) {
	s := tempStore(t)
	_, err := s.Load(s.DesiredPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "file not found")

	_, _, err = s.LoadGrids()
	require.Error(t, err)
}

func TestLoadGridsAndSave(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, ioutil.WriteFile(s.DesiredPath, []byte("3,0,0\n0,0,0\n"), 0644))
	require.NoError(t, ioutil.WriteFile(s.CurrentPath, []byte("5,0,0\n0,0,1\n"), 0644))

	desired, current, err := s.LoadGrids()
	require.NoError(t, err)
	require.Equal(t, 3, desired[0][0])
	require.Equal(t, 5, current[0][0])

	current.CopyRow(desired, 0)
	require.NoError(t, s.SaveCurrent(current))
	reloaded, err := s.Load(s.CurrentPath)
	require.NoError(t, err)
	require.Equal(t, motor.Grid{{3, 0, 0}, {0, 0, 1}}, reloaded)

	require.Error(t, s.SaveCurrent(motor.Grid{{1}}))
}
