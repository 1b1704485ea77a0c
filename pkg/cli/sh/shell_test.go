package sh

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/ceiling.go/pkg/array"
)

func TestStatus(t *testing.T) {
	color.NoColor = true
	require.Equal(t, "DONE", Status(StatusOf(array.OutcomeReplied)))
	require.Equal(t, "TIMEOUT", Status(StatusOf(array.OutcomeTimedOut)))
	require.Equal(t, "SENT", Status(StatusOf(array.OutcomeSent)))
	require.Equal(t, "FAILED", Status(StatusOf(array.OutcomeFailed)))
	require.Equal(t, "closed", Status("closed"))
}

func TestStatusColored(t *testing.T) {
	color.NoColor = false
	defer func() { color.NoColor = true }()
	colored := Status("FAILED")
	require.NotEqual(t, "FAILED", colored)
	require.Contains(t, colored, "FAILED")
}
