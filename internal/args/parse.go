// Package args defines the m2p-cli argument model and parses process
// arguments into it. Subcommands only record their parameters; running them
// is the router's job.
package args

import (
	"errors"
	"io"

	"github.com/hzqd/m2p/internal/buildinfo"
	"github.com/spf13/cobra"
)

// ErrDisplayed is returned when parsing printed help or version output and no
// command was selected.
var ErrDisplayed = errors.New("help or version displayed")

const programName = "m2p-cli"

// Parse parses argv (without the program name) into CliArguments. Help and
// version text go to stdout.
func Parse(argv []string, stdout, stderr io.Writer) (CliArguments, error) {
	var out CliArguments
	root := newRootCmd(&out)
	root.SetArgs(argv)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		return CliArguments{}, err
	}
	if out.Command == nil {
		return CliArguments{}, ErrDisplayed
	}
	return out, nil
}

func newRootCmd(out *CliArguments) *cobra.Command {
	cmd := &cobra.Command{
		Use:     programName,
		Short:   "Compile, watch and query documents",
		Version: buildinfo.Summary(),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetVersionTemplate(programName + " {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&out.ConfigPath, "config", "", "Path to config file (.cue)")
	pf.CountVarP(&out.Verbosity, "verbosity", "v", "Increase logging verbosity (-v, -vv, -vvv)")
	pf.StringVar(&out.Timings, "timings", "", "Write a JSON-lines trace of the run to this path")

	cmd.AddCommand(
		newCompileCmd(out),
		newWatchCmd(out),
		newQueryCmd(out),
		newFontsCmd(out),
		newUpdateCmd(out),
	)
	return cmd
}
