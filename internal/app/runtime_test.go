package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDryRun(t *testing.T) {
	t.Setenv(DryRunEnv, "")
	require.False(t, DryRun())
	require.False(t, SkipStartup("api"))

	t.Setenv(DryRunEnv, "1")
	require.True(t, SkipStartup("api"))

	t.Setenv(DryRunEnv, "true")
	require.True(t, DryRun())

	t.Setenv(DryRunEnv, "yes")
	require.False(t, DryRun())
}
