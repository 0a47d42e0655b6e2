package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/scoreboard/pkg/logger"
)

// SetupLogging initializes the global logger on stdout and, when logFile is
// set, on that file too. The returned closer releases the file.
func SetupLogging(logFile, format string) (io.Closer, error) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	if err := logger.InitWithOptions(format, w); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ShowHelp prints usage information for the probe tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Scoreboard Probe
================

Checks a running scoreboard over HTTP. Concurrent /api/scores listings must
be ordered by id and identical to each other.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:3000")
  -requests int
        Number of /api/scores requests (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -output string
        Write the first listing to this file as JSON
  -log string
        Also write logs to this file
  -format string
        Log format: text or json (default "text")
  -verbose
        Log every request
  -help
        Show this help message

Examples:
  go run ./cmd/probe -url http://localhost:3000
  go run ./cmd/probe -requests 500 -workers 32 -output listing.json
`)
}
