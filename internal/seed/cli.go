package seed

import (
	"fmt"
	"os"

	"github.com/okian/scoreline/pkg/logger"
)

// SetupLogging initializes the global logger for the tool.
func SetupLogging(verbose bool) error {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`scoreline seed tool
===================

Submits generated predictions to a running scoreline service and checks the
published standings against locally computed points.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -users int         Number of users to generate (default 200)
  -workers int       Number of concurrent workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 10s)
  -settle duration   How long to wait for the standings (default 30s)
  -top int           Leaderboard entries to fetch (default 50)
  -results           Post random results for unfinalized games
  -seed uint         Random seed (default: current time)
  -output string     Write generated submissions to this JSON file
  -verbose           Enable verbose logging
  -help              Show this help message

The service needs a writable source (memory or postgres). With the drop
profile policy the generated users have no profile, so the tool expects
them to be absent from the standings.
`)
}
