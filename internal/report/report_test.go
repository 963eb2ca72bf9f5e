package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestPrintError_Plain(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintError(Stream{W: &buf}, "input file not found"); err != nil {
		t.Fatalf("print: %v", err)
	}
	if got := buf.String(); got != "error: input file not found.\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestPrintError_Colored(t *testing.T) {
	// Stdout redirected while stderr is a terminal: the package-wide switch
	// is off but the stream asks for color.
	for _, globalNoColor := range []bool{false, true} {
		prev := color.NoColor
		color.NoColor = globalNoColor
		var buf bytes.Buffer
		err := PrintError(Stream{W: &buf, Color: true}, "boom")
		color.NoColor = prev
		if err != nil {
			t.Fatalf("print: %v", err)
		}
		got := buf.String()
		if got != "\x1b[31;1merror\x1b[0;22m: boom.\n" {
			t.Fatalf("NoColor=%v: unexpected output: %q", globalNoColor, got)
		}
	}
}

func TestPrintError_PlainIgnoresGlobalColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()
	var buf bytes.Buffer
	if err := PrintError(Stream{W: &buf}, "boom"); err != nil {
		t.Fatalf("print: %v", err)
	}
	if got := buf.String(); strings.Contains(got, "\x1b[") || got != "error: boom.\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestPrintError_WriteFailure(t *testing.T) {
	if err := PrintError(Stream{W: failingWriter{}}, "boom"); err == nil {
		t.Fatalf("expected write error")
	}
}
