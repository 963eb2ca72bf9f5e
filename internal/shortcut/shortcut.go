// Package shortcut converts a single Markdown file to PDF without a compile
// subcommand. It writes a small intermediate document that renders the
// Markdown through the cmarker package, compiles it, and renames the result to
// {stem}.pdf.
package shortcut

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hzqd/m2p/internal/args"
)

const (
	// DefaultFont is used when no font argument is given.
	DefaultFont = "HYKaiTiJ"
	// IntermediateFile is the name of the generated document.
	IntermediateFile = "typst_inner_proc_intermediate_file"
	// fontsKeyword lists fonts instead of converting a file.
	fontsKeyword = "fonts"
)

var (
	ErrNoFile   = errors.New("no file specified")
	ErrFileName = errors.New("file name error")
)

// documentTemplate is kept byte for byte, whitespace included.
const documentTemplate = "\n" +
	"        #import \"@preview/cmarker:0.1.0\"\n" +
	"        #set text(font: \"%s\")\n" +
	"        #cmarker.render(read(\"%s\"))\n" +
	"    "

// Document returns the intermediate document body for font and input.
func Document(font, input string) string {
	return fmt.Sprintf(documentTemplate, font, input)
}

// Request is a conversion derived from raw process arguments.
type Request struct {
	Input string
	Font  string
	// Stem is Input up to its first '.'; empty for the fonts keyword.
	Stem string
}

// ListsFonts reports whether the request asks for font enumeration.
func (r Request) ListsFonts() bool { return r.Input == fontsKeyword }

// ParseRequest reads argv[1] as the input file and argv[2], when present, as
// the font name. argv[0] is ignored.
func ParseRequest(argv []string) (Request, error) {
	if len(argv) < 2 {
		return Request{}, ErrNoFile
	}
	req := Request{Input: argv[1], Font: DefaultFont}
	if len(argv) > 2 {
		req.Font = argv[2]
	}
	if req.ListsFonts() {
		return req, nil
	}
	stem, _, found := strings.Cut(req.Input, ".")
	// A stem equal to the intermediate name would make the output overwrite it.
	if !found || stem == "" || stem == IntermediateFile {
		return Request{}, fmt.Errorf("%w: %q", ErrFileName, req.Input)
	}
	req.Stem = stem
	return req, nil
}

type Compiler interface {
	Compile(ctx context.Context, cmd *args.CompileCommand) error
}

type FontLister interface {
	Fonts(ctx context.Context, cmd *args.FontsCommand) error
}

// Converter runs shortcut conversions in Dir.
type Converter struct {
	// Dir holds the input, the intermediate file and the output. Empty means
	// the working directory.
	Dir      string
	Compiler Compiler
	Fonts    FontLister
}

func (c *Converter) path(name string) string {
	if c.Dir == "" {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// Run parses argv and performs the conversion. The intermediate file is
// removed on every path once written.
func (c *Converter) Run(ctx context.Context, argv []string) (err error) {
	req, err := ParseRequest(argv)
	if err != nil {
		return err
	}
	if req.ListsFonts() {
		return c.Fonts.Fonts(ctx, &args.FontsCommand{})
	}

	tmp := c.path(IntermediateFile)
	if err := os.WriteFile(tmp, []byte(Document(req.Font, req.Input)), 0o644); err != nil {
		return fmt.Errorf("write intermediate document: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("remove intermediate document: %w", rmErr)
		}
	}()

	out := c.path(req.Stem)
	cmd := &args.CompileCommand{
		Common: args.CommonArgs{Input: tmp},
		Output: out,
		Format: args.FormatPDF,
	}
	if err := c.Compiler.Compile(ctx, cmd); err != nil {
		return err
	}
	if err := os.Rename(out, out+".pdf"); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
