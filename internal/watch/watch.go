// Package watch recompiles a document whenever a file in its project
// changes. Changes are detected by polling.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hzqd/m2p/internal/args"
	"github.com/hzqd/m2p/internal/config"
	"github.com/rs/zerolog"
)

type Compiler interface {
	Compile(ctx context.Context, cmd *args.CompileCommand) error
}

// Watcher polls the project directory every Interval.
type Watcher struct {
	Compiler    Compiler
	Interval    time.Duration
	NoGitignore bool
}

// New returns a Watcher configured by cfg.
func New(c Compiler, cfg config.Watch) *Watcher {
	return &Watcher{
		Compiler:    c,
		Interval:    time.Duration(cfg.IntervalMs) * time.Millisecond,
		NoGitignore: cfg.NoGitignore,
	}
}

// Watch compiles cmd once and again after every change until ctx is done.
// Compile errors are logged and do not stop watching.
func (w *Watcher) Watch(ctx context.Context, cmd *args.WatchCommand) error {
	log := zerolog.Ctx(ctx)
	sc, err := newScanner(&cmd.CompileCommand, w.NoGitignore)
	if err != nil {
		return err
	}
	prev, err := sc.scan()
	if err != nil {
		return fmt.Errorf("scan %s: %w", sc.root, err)
	}
	w.compile(ctx, &cmd.CompileCommand)
	log.Info().Str("root", sc.root).Msg("watching for changes")

	interval := w.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		cur, err := sc.scan()
		if err != nil {
			log.Warn().Err(err).Msg("scan failed")
			continue
		}
		if cur.equal(prev) {
			continue
		}
		prev = cur
		log.Info().Msg("change detected, recompiling")
		w.compile(ctx, &cmd.CompileCommand)
	}
}

func (w *Watcher) compile(ctx context.Context, cmd *args.CompileCommand) {
	log := zerolog.Ctx(ctx)
	start := time.Now()
	if err := w.Compiler.Compile(ctx, cmd); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Msg("compilation failed")
		return
	}
	log.Info().Dur("elapsed", time.Since(start)).Str("output", cmd.OutputPath()).Msg("compiled successfully")
}

func newScanner(cmd *args.CompileCommand, noGitignore bool) (*scanner, error) {
	root := cmd.Common.Root
	if root == "" {
		root = filepath.Dir(cmd.Common.Input)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	out, err := filepath.Abs(cmd.OutputPath())
	if err != nil {
		return nil, err
	}
	return &scanner{
		root:        absRoot,
		noGitignore: noGitignore,
		skip:        map[string]struct{}{out: {}},
	}, nil
}
