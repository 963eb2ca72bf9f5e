// Package report prints application-level errors, independent of any source
// file, as a single line on a color-capable stream.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Stream is a writer with a fixed color decision.
type Stream struct {
	W     io.Writer
	Color bool
}

// Stderr returns standard error, colored only when attached to a terminal.
func Stderr() Stream {
	fd := os.Stderr.Fd()
	return Stream{
		W:     os.Stderr,
		Color: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func errorStyle(enabled bool) *color.Color {
	c := color.New(color.FgRed, color.Bold)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// PrintError writes "error: {msg}." and a newline, with "error" in the error
// style.
func PrintError(s Stream, msg string) error {
	// Sprint honors only the per-Color setting; Fprint consults the global
	// color.NoColor, which is derived from stdout.
	_, err := fmt.Fprintf(s.W, "%s: %s.\n", errorStyle(s.Color).Sprint("error"), msg)
	return err
}
