// Package logger provides verbose logging for sercha-kb.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users understand the ingest and search
// pipeline. Errors and one-shot warnings are printed regardless of mode.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr

	// warned holds the keys of one-shot warnings already printed.
	warned = make(map[string]bool)

	// now is replaced in tests.
	now = time.Now
)

// Message levels.
const (
	levelDebug = "DEBUG"
	levelInfo  = "INFO"
	levelWarn  = "WARN"
	levelError = "ERROR"
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf writes one line at level. Lines other than errors are dropped
// unless verbose mode is on. Caller must hold mu.
func logf(level, format string, args ...any) {
	if level != levelError && !verbose {
		return
	}
	fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logf(levelDebug, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logf(levelInfo, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logf(levelWarn, format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logf(levelError, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed starts timing a pipeline step. The returned func logs the
// elapsed time at debug level:
//
//	defer logger.Timed("search %q", query)()
func Timed(format string, args ...any) func() {
	if !IsVerbose() {
		return func() {}
	}
	label := fmt.Sprintf(format, args...)
	start := now()
	return func() {
		Debug("%s took %s", label, now().Sub(start).Round(time.Microsecond))
	}
}

// WarnOnce prints a warning the first time it is called for key,
// regardless of verbose mode. Later calls are dropped until ResetOnce(key).
// It reports whether the message was printed.
func WarnOnce(key, format string, args ...any) bool {
	mu.Lock()
	defer mu.Unlock()
	if warned[key] {
		return false
	}
	warned[key] = true
	fmt.Fprintf(output, "["+levelWarn+"] "+format+"\n", args...)
	return true
}

// ResetOnce re-arms the one-shot warning for key.
func ResetOnce(key string) {
	mu.Lock()
	defer mu.Unlock()
	delete(warned, key)
}
