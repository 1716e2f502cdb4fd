// Package logger provides verbose logging for the NutriGenie CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to trace each stage of a chat turn: language
// gate, guardrail, retrieval, prompt assembly and model attempts.
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

// SetOutput redirects verbose logs. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func printf(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, format, args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	printf("[DEBUG] "+format+"\n", args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	printf("[INFO] "+format+"\n", args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	printf("[WARN] "+format+"\n", args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	printf("\n=== %s ===\n", name)
}

// Turn opens the section for one chat turn.
// An empty conversationID marks the first turn of a new conversation.
func Turn(conversationID string) {
	if conversationID == "" {
		conversationID = "new"
	}
	Section("Chat turn [" + conversationID + "]")
}

// Stage reports how long a pipeline stage took, rounded to the millisecond.
func Stage(name string, elapsed time.Duration) {
	printf("[STAGE] %-10s %s\n", name, elapsed.Round(time.Millisecond))
}
