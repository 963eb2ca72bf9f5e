// Package app is the full-mode entry of m2p-cli. It owns the per-run state
// (parsed arguments, exit status, trace guard) and hands the selected command
// to the router.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hzqd/m2p/internal/args"
	"github.com/hzqd/m2p/internal/config"
	"github.com/hzqd/m2p/internal/engine"
	"github.com/hzqd/m2p/internal/fonts"
	"github.com/hzqd/m2p/internal/query"
	"github.com/hzqd/m2p/internal/report"
	"github.com/hzqd/m2p/internal/router"
	"github.com/hzqd/m2p/internal/state"
	"github.com/hzqd/m2p/internal/tracing"
	"github.com/hzqd/m2p/internal/update"
	"github.com/hzqd/m2p/internal/watch"
)

// ExitUsage is returned when the arguments do not parse.
const ExitUsage = 2

// Options are the process streams and the collaborator factory.
type Options struct {
	Stdout io.Writer
	Stderr report.Stream
	// Collaborators builds the router set for cfg. Nil means NewCollaborators.
	Collaborators func(cfg config.Config, stdout, stderr io.Writer) router.Set
}

// NewCollaborators wires the engine adapter and the watch, query and fonts
// implementations for cfg.
func NewCollaborators(cfg config.Config, stdout, stderr io.Writer) router.Set {
	eng := engine.New(cfg.Engine, stdout, stderr)
	return router.Set{
		Compiler: eng,
		Watcher:  watch.New(eng, cfg.Watch),
		Querier: &query.Runner{
			Source:  eng,
			Out:     stdout,
			Sandbox: cfg.Query.Sandbox,
		},
		FontLister: fonts.New(stdout, cfg.Fonts),
		Updater:    update.Select(eng),
	}
}

// Run parses argv (without the program name), runs the selected command and
// returns the process exit code.
func Run(ctx context.Context, argv []string, opts Options) int {
	if opts.Collaborators == nil {
		opts.Collaborators = NewCollaborators
	}
	cliArgs := state.NewLazy(func() (args.CliArguments, error) {
		return args.Parse(argv, opts.Stdout, opts.Stderr.W)
	})
	cli, err := cliArgs.Get()
	if errors.Is(err, args.ErrDisplayed) {
		return state.ExitSuccess
	}
	if err != nil {
		mustReport(opts.Stderr, err)
		return ExitUsage
	}

	var status state.ExitStatus
	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		fail(&status, opts.Stderr, err)
		return status.Code()
	}

	logger, closer := tracing.NewLogger(cli.Verbosity, cfg.Log, opts.Stderr.W, opts.Stderr.Color)
	defer closer.Close()

	guard, err := tracing.Setup(cli)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize tracing")
	}
	defer guard.Close()

	ctx = logger.WithContext(ctx)
	set := opts.Collaborators(cfg, opts.Stdout, opts.Stderr.W)

	name := cli.Command.Name()
	logger.Debug().Str("command", name).Str("session", guard.Session()).Msg("routing command")
	end := guard.Span(name)
	err = router.Route(ctx, cli.Command, set)
	end()
	if err != nil {
		fail(&status, opts.Stderr, err)
	}
	return status.Code()
}

func fail(status *state.ExitStatus, s report.Stream, err error) {
	status.MarkFailed()
	mustReport(s, err)
}

// mustReport panics when the error line itself cannot be written.
func mustReport(s report.Stream, err error) {
	if perr := report.PrintError(s, err.Error()); perr != nil {
		panic(fmt.Sprintf("failed to print error: %v", perr))
	}
}
