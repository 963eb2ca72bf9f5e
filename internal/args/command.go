package args

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CliArguments is the parsed invocation: the selected command plus global flags.
type CliArguments struct {
	Command Command

	// ConfigPath is an explicit --config; empty means m2p.cue when present.
	ConfigPath string
	// Verbosity counts -v flags.
	Verbosity int
	// Timings is the trace output path; empty disables tracing.
	Timings string
}

// Command is one of the mutually exclusive top-level operations. The set is
// closed: only the types in this package implement it.
type Command interface {
	Name() string
	isCommand()
}

// CommonArgs are shared by every command that reads a document.
type CommonArgs struct {
	// Input is the path to the source document.
	Input string
	// Root is the project root for absolute paths; empty means the input's directory.
	Root string
	// Inputs are string key/value pairs made visible to the document.
	Inputs map[string]string
	// FontPaths are extra directories searched for fonts.
	FontPaths []string
}

// CompileCommand compiles an input document into a PDF, PNG or SVG file.
type CompileCommand struct {
	Common CommonArgs
	// Output is the output path. Empty derives it from the input and format.
	Output string
	// Format is the output format. Empty infers it from Output's extension.
	Format OutputFormat
	// PPI is the pixel density for PNG export.
	PPI float64
}

// WatchCommand watches an input document and recompiles on changes.
type WatchCommand struct {
	CompileCommand
}

// QueryCommand processes an input document and prints the matching elements.
type QueryCommand struct {
	Common   CommonArgs
	Selector string
	// Field extracts one field from each element.
	Field string
	// One expects and prints exactly one element.
	One    bool
	Format SerializationFormat
	Pretty bool
	// Filter is a Lua chunk evaluated per element; truthy keeps it.
	Filter string
}

// FontsCommand lists all discovered fonts.
type FontsCommand struct {
	FontPaths []string
	// Variants also lists every style variant of each family.
	Variants bool
}

// UpdateCommand self-updates the executable.
type UpdateCommand struct {
	// Version to update to; empty means latest.
	Version string
	Force   bool
	// Revert rolls back to the version before the last update.
	Revert bool
}

func (*CompileCommand) Name() string { return "compile" }
func (*WatchCommand) Name() string   { return "watch" }
func (*QueryCommand) Name() string   { return "query" }
func (*FontsCommand) Name() string   { return "fonts" }
func (*UpdateCommand) Name() string  { return "update" }

func (*CompileCommand) isCommand() {}
func (*WatchCommand) isCommand()   {}
func (*QueryCommand) isCommand()   {}
func (*FontsCommand) isCommand()   {}
func (*UpdateCommand) isCommand()  {}

// OutputFormat is an export target of the compiler.
type OutputFormat string

const (
	FormatPDF OutputFormat = "pdf"
	FormatPNG OutputFormat = "png"
	FormatSVG OutputFormat = "svg"
)

// ParseOutputFormat accepts pdf, png or svg in any case.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatPDF, FormatPNG, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (expected pdf, png or svg)", s)
	}
}

// EffectiveFormat returns Format, or the one implied by Output's extension,
// falling back to PDF.
func (c *CompileCommand) EffectiveFormat() OutputFormat {
	if c.Format != "" {
		return c.Format
	}
	ext := strings.TrimPrefix(filepath.Ext(c.Output), ".")
	if f, err := ParseOutputFormat(ext); err == nil {
		return f
	}
	return FormatPDF
}

// OutputPath returns Output, or the input path with the format's extension.
func (c *CompileCommand) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	in := c.Common.Input
	return strings.TrimSuffix(in, filepath.Ext(in)) + "." + string(c.EffectiveFormat())
}

// SerializationFormat is the output encoding of query results.
type SerializationFormat string

const (
	SerializeJSON SerializationFormat = "json"
	SerializeYAML SerializationFormat = "yaml"
)

// ParseSerializationFormat accepts json or yaml in any case.
func ParseSerializationFormat(s string) (SerializationFormat, error) {
	switch f := SerializationFormat(strings.ToLower(s)); f {
	case SerializeJSON, SerializeYAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid serialization format: %q (expected json or yaml)", s)
	}
}
