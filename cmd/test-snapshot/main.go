package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/rollcall/internal/testsnapshot"
)

// Default configuration constants.
const (
	defaultSnapshotID  = "synthetic"
	defaultMembers     = 9
	defaultVotes       = 200
	defaultMeetings    = 12
	defaultCohesion    = 0.85
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		snapshotID = flag.String("id", defaultSnapshotID, "Snapshot id to upload under")
		members    = flag.Int("members", defaultMembers, "Council size")
		votes      = flag.Int("votes", defaultVotes, "Number of roll calls to generate")
		meetings   = flag.Int("meetings", defaultMeetings, "Number of meetings to spread roll calls over")
		cohesion   = flag.Float64("cohesion", defaultCohesion, "Probability a member votes with their bloc")
		seed       = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Generator seed")
		workers    = flag.Int("workers", runtime.NumCPU(), "Concurrent profile fetches")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write the generated snapshot to this file")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		keep       = flag.Bool("keep", false, "Leave the snapshot on the server after the run")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testsnapshot.ShowHelp()
		return
	}

	closer, err := testsnapshot.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)

	cfg := &testsnapshot.Config{
		BaseURL:    *baseURL,
		SnapshotID: *snapshotID,
		Members:    *members,
		Votes:      *votes,
		Meetings:   *meetings,
		Cohesion:   *cohesion,
		Seed:       *seed,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Keep:       *keep,
		Verbose:    *verbose,
	}

	err = testsnapshot.Run(ctx, cfg)
	cancel()
	_ = closer.Close()
	if err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
