package testsnapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/rollcall/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends log output to both stdout and a file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "test_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}

	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the test snapshot tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Rollcall Snapshot Test Tool
===========================

Generates a synthetic council voting snapshot, uploads it to a running
rollcall service and verifies the analytics it serves.

Usage:
  go run ./cmd/test-snapshot [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -id string
        Snapshot id to upload under (default "synthetic")
  -members int
        Council size (default 9)
  -votes int
        Number of roll calls to generate (default 200)
  -meetings int
        Number of meetings to spread roll calls over (default 12)
  -cohesion float
        Probability a member votes with their bloc (default 0.85)
  -seed uint
        Generator seed (default: current time)
  -workers int
        Concurrent profile fetches (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write the generated snapshot to this file
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -keep
        Leave the snapshot on the server after the run
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run ./cmd/test-snapshot

  # Larger council, weaker blocs, saved snapshot
  go run ./cmd/test-snapshot -members 15 -votes 1000 -cohesion 0.6 -output council.json
`)
}
