// Package printer renders user-facing CLI messages with consistent colors
// and prefixes.
package printer

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to a TTY; NO_COLOR still
	// disables it.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a green message with a checkmark prefix.
func Success(format string, a ...any) {
	green.Printf("✓ %s", fmt.Sprintf(format, a...))
}

// Info prints an informational message in the default color.
func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Warning prints a yellow warning message.
func Warning(format string, a ...any) {
	yellow.Printf("⚠ %s", fmt.Sprintf(format, a...))
}

// Step prints a cyan progress line for multi-step operations.
func Step(format string, a ...any) {
	cyan.Printf("→ %s", fmt.Sprintf(format, a...))
}

// Error prints a formatted error to stderr with optional suggestions and
// returns a plain error for cobra, which stays silent because commands run
// with SilenceErrors.
func Error(title string, suggestions ...string) error {
	red.Fprintf(os.Stderr, "%s\n", title)

	if len(suggestions) > 0 {
		fmt.Fprintln(os.Stderr)
		for _, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  %s\n", s)
		}
	}

	return fmt.Errorf("%s", title)
}

// Println prints a plain line without coloring.
func Println(a ...any) {
	fmt.Println(a...)
}

// Printf prints a plain formatted message without coloring.
func Printf(format string, a ...any) {
	fmt.Printf(format, a...)
}
