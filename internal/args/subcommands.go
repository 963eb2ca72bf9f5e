package args

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func addCommonFlags(fs *pflag.FlagSet, c *CommonArgs) {
	fs.StringVar(&c.Root, "root", "", "Project root for absolute paths (default: input directory)")
	fs.StringToStringVar(&c.Inputs, "input", nil, "Add a string key/value pair visible to the document (key=value)")
	fs.StringSliceVar(&c.FontPaths, "font-path", nil, "Add an additional directory to search for fonts")
}

// compileFlags binds the flags shared by compile and watch. The format flag is
// kept as a raw string and validated in finish.
type compileFlags struct {
	format string
}

func (f *compileFlags) bind(fs *pflag.FlagSet, c *CompileCommand) {
	addCommonFlags(fs, &c.Common)
	fs.StringVarP(&f.format, "format", "f", "", "Output format: pdf, png or svg (default: inferred from output)")
	fs.Float64Var(&c.PPI, "ppi", 144, "Pixels per inch for PNG export")
}

func (f *compileFlags) finish(c *CompileCommand, positional []string) error {
	c.Common.Input = positional[0]
	if len(positional) > 1 {
		c.Output = positional[1]
	}
	if f.format != "" {
		format, err := ParseOutputFormat(f.format)
		if err != nil {
			return err
		}
		c.Format = format
	}
	return nil
}

func newCompileCmd(out *CliArguments) *cobra.Command {
	var (
		c     CompileCommand
		flags compileFlags
	)
	cmd := &cobra.Command{
		Use:           "compile <input> [output]",
		Aliases:       []string{"c"},
		Short:         "Compile an input file into a supported output format",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.finish(&c, args); err != nil {
				return err
			}
			out.Command = &c
			return nil
		},
	}
	flags.bind(cmd.Flags(), &c)
	return cmd
}

func newWatchCmd(out *CliArguments) *cobra.Command {
	var (
		w     WatchCommand
		flags compileFlags
	)
	cmd := &cobra.Command{
		Use:           "watch <input> [output]",
		Aliases:       []string{"w"},
		Short:         "Watch an input file and recompile on changes",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.finish(&w.CompileCommand, args); err != nil {
				return err
			}
			out.Command = &w
			return nil
		},
	}
	flags.bind(cmd.Flags(), &w.CompileCommand)
	return cmd
}

func newQueryCmd(out *CliArguments) *cobra.Command {
	var (
		q      QueryCommand
		format string
	)
	cmd := &cobra.Command{
		Use:           "query <input> <selector>",
		Short:         "Process an input file to extract provided metadata",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ParseSerializationFormat(format)
			if err != nil {
				return err
			}
			q.Common.Input = args[0]
			q.Selector = args[1]
			q.Format = f
			out.Command = &q
			return nil
		},
	}
	fs := cmd.Flags()
	addCommonFlags(fs, &q.Common)
	fs.StringVar(&q.Field, "field", "", "Extract just one field from all retrieved elements")
	fs.BoolVar(&q.One, "one", false, "Expect and retrieve exactly one element")
	fs.StringVar(&format, "format", string(SerializeJSON), "Serialization format: json or yaml")
	fs.BoolVar(&q.Pretty, "pretty", false, "Pretty-print JSON output")
	fs.StringVar(&q.Filter, "filter", "", "Lua chunk run per element (globals: item, index); truthy keeps the element")
	return cmd
}

func newFontsCmd(out *CliArguments) *cobra.Command {
	var f FontsCommand
	cmd := &cobra.Command{
		Use:           "fonts",
		Short:         "List all discovered fonts in system and custom font paths",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out.Command = &f
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&f.FontPaths, "font-path", nil, "Add an additional directory to search for fonts")
	cmd.Flags().BoolVar(&f.Variants, "variants", false, "Also list style variants of each font family")
	return cmd
}

func newUpdateCmd(out *CliArguments) *cobra.Command {
	var u UpdateCommand
	cmd := &cobra.Command{
		Use:           "update [version]",
		Short:         "Self update the executable",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				u.Version = args[0]
			}
			out.Command = &u
			return nil
		},
	}
	cmd.Flags().BoolVar(&u.Force, "force", false, "Force a downgrade to an older version")
	cmd.Flags().BoolVar(&u.Revert, "revert", false, "Revert to the version from before the last update")
	return cmd
}
