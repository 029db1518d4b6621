// Package printer formats CLI output for the portal commands.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

func init() {
	// NO_COLOR is honoured by fatih/color itself.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)

	// Out and Err are swapped in tests.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

// Success prints a green line prefixed with a checkmark.
func Success(format string, a ...any) {
	green.Fprintf(Out, "✓ "+format+"\n", a...)
}

func Info(format string, a ...any) {
	fmt.Fprintf(Out, format+"\n", a...)
}

// Heading prints a cyan section title.
func Heading(format string, a ...any) {
	cyan.Fprintf(Out, format+"\n", a...)
}

// Detail prints a dimmed, indented line.
func Detail(format string, a ...any) {
	faint.Fprintf(Out, "  "+format+"\n", a...)
}

func Warning(format string, a ...any) {
	yellow.Fprintf(Err, "! "+format+"\n", a...)
}

// Error prints title, explanation and suggestions to Err and returns an
// error carrying only the title, for cobra to exit non-zero on.
func Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(Err, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(Err, "%s\n", explanation)
	}
	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(Err, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(Err, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(Err, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}
