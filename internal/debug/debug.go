// Package debug provides environment-gated structured logging used across
// the indexing, retrieval, and benchmark subsystems instead of bare
// fmt.Println in hot paths.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnableDebug is a build flag that can be overridden at link time:
// go build -ldflags "-X github.com/standardbeagle/semindex/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// ServerMode tracks whether we are running as an MCP server, which
// suppresses all debug output to stdio to keep the protocol stream clean.
var ServerMode = false

var (
	debugOutput io.Writer
	debugFile   *os.File
	debugMutex  sync.Mutex
)

// SetServerMode toggles stdio-protocol-safe logging.
func SetServerMode(enabled bool) {
	ServerMode = enabled
}

// SetOutput sets a custom writer for debug output. Pass nil to disable.
func SetOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitLogFile initializes debug logging to a timestamped file under the OS
// temp directory and returns its path.
func InitLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "semindex-debug-logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("create debug log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", time.Now().Format("2006-01-02T150405")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseLogFile closes the debug log file if one is open.
func CloseLogFile() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		debugOutput = nil
		return err
	}
	return nil
}

// Enabled reports whether debug logging should produce output.
func Enabled() bool {
	if ServerMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("SEMINDEX_DEBUG")
	return v == "1" || v == "true"
}

func writer() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf writes a debug line when debug mode is enabled.
func Printf(format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[DEBUG] "+format, args...)
	}
}

// Log writes a component-tagged debug line.
func Log(component, format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
	}
}

// LogIngest logs an ingestion-pipeline event (C1-C5).
func LogIngest(format string, args ...interface{}) { Log("INGEST", format, args...) }

// LogSearch logs a retrieval event (C6-C9).
func LogSearch(format string, args ...interface{}) { Log("SEARCH", format, args...) }

// LogBenchmark logs a benchmark phase transition (C13).
func LogBenchmark(format string, args ...interface{}) { Log("BENCH", format, args...) }

// CatastrophicError records an unrecoverable system condition without
// touching stdio, so protocol-mode hosts stay uncorrupted.
func CatastrophicError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !ServerMode {
		if w := writer(); w != nil {
			fmt.Fprintf(w, "[CATASTROPHIC] %s", msg)
		}
	}
}
