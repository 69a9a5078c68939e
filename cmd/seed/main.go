package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/scoreline/internal/seed"
)

// Default configuration constants.
const (
	defaultUsers       = 200
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultSettle      = 30 * time.Second
	defaultRunDeadline = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		users   = flag.Int("users", defaultUsers, "Number of users to generate")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle  = flag.Duration("settle", defaultSettle, "How long to wait for the standings to catch up")
		topN    = flag.Int("top", defaultTopN, "Number of leaderboard entries to fetch")
		results = flag.Bool("results", false, "Post random results for unfinalized games")
		seedVal = flag.Uint64("seed", 0, "Random seed (default: current time)")
		output  = flag.String("output", "", "Write generated submissions to this JSON file")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := seed.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunDeadline)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:     *baseURL,
		Users:       *users,
		Workers:     *workers,
		Timeout:     *timeout,
		SettleAfter: *settle,
		TopN:        *topN,
		Results:     *results,
		Seed:        *seedVal,
		OutputFile:  *output,
		Verbose:     *verbose,
	}
	if _, err := seed.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("seed run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
