package app

import (
	"log/slog"
	"os"
	"strconv"
)

// DryRunEnv names the variable that stops binaries before they open stores or
// listeners. CI smoke jobs set it to check that a binary links and starts.
const DryRunEnv = "ODYSSEY_TEST_MODE"

// DryRun reports whether DryRunEnv holds a true value.
func DryRun() bool {
	on, err := strconv.ParseBool(os.Getenv(DryRunEnv))
	return err == nil && on
}

// SkipStartup logs and returns true when component should exit early.
func SkipStartup(component string) bool {
	if !DryRun() {
		return false
	}
	slog.Default().Info("dry run, skipping startup", slog.String("component", component), slog.String("env", DryRunEnv))
	return true
}
