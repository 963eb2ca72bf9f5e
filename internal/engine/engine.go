// Package engine runs the external typesetting program that does the actual
// document compilation.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hzqd/m2p/internal/args"
	"github.com/hzqd/m2p/internal/config"
	"github.com/rs/zerolog"
)

const (
	stderrCaptureBytes = 4096
	defaultTermGrace   = 2 * time.Second
)

// Engine invokes one engine program. Diagnostics stream to Stderr.
type Engine struct {
	Program string
	// Timeout bounds one run; zero means no limit.
	Timeout time.Duration
	Stdout  io.Writer
	Stderr  io.Writer
	// TermGrace is how long a timed-out run may take to exit after SIGTERM.
	TermGrace time.Duration
}

// New returns an Engine for cfg.
func New(cfg config.Engine, stdout, stderr io.Writer) *Engine {
	return &Engine{
		Program:   cfg.Program,
		Timeout:   time.Duration(cfg.TimeoutMs) * time.Millisecond,
		Stdout:    stdout,
		Stderr:    stderr,
		TermGrace: defaultTermGrace,
	}
}

// ExitError reports a run that exited with a non-zero status.
type ExitError struct {
	Program    string
	Subcommand string
	Code       int
	// Detail is the first line the program wrote to stderr, if any.
	Detail string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s exited with status %d", e.Program, e.Subcommand, e.Code)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Compile compiles cmd's input with the engine.
func (e *Engine) Compile(ctx context.Context, cmd *args.CompileCommand) error {
	return e.run(ctx, "compile", compileArgs(cmd), e.Stdout)
}

// QueryJSON returns the raw JSON array of elements matching selector.
func (e *Engine) QueryJSON(ctx context.Context, common args.CommonArgs, selector string) ([]byte, error) {
	argv := append(commonArgs(common), "--format", "json", common.Input, selector)
	var out bytes.Buffer
	if err := e.run(ctx, "query", argv, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Update delegates self-update to the engine's own update subcommand.
func (e *Engine) Update(ctx context.Context, cmd *args.UpdateCommand) error {
	var argv []string
	if cmd.Version != "" {
		argv = append(argv, cmd.Version)
	}
	if cmd.Force {
		argv = append(argv, "--force")
	}
	if cmd.Revert {
		argv = append(argv, "--revert")
	}
	return e.run(ctx, "update", argv, e.Stdout)
}

func commonArgs(c args.CommonArgs) []string {
	var argv []string
	if c.Root != "" {
		argv = append(argv, "--root", c.Root)
	}
	keys := make([]string, 0, len(c.Inputs))
	for k := range c.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		argv = append(argv, "--input", k+"="+c.Inputs[k])
	}
	for _, p := range c.FontPaths {
		argv = append(argv, "--font-path", p)
	}
	return argv
}

func compileArgs(c *args.CompileCommand) []string {
	format := c.EffectiveFormat()
	argv := append(commonArgs(c.Common), "--format", string(format))
	if format == args.FormatPNG && c.PPI > 0 {
		argv = append(argv, "--ppi", strconv.FormatFloat(c.PPI, 'f', -1, 64))
	}
	argv = append(argv, c.Common.Input)
	if c.Output != "" {
		argv = append(argv, c.Output)
	}
	return argv
}

func (e *Engine) run(ctx context.Context, sub string, argv []string, stdout io.Writer) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	full := append([]string{sub}, argv...)
	zerolog.Ctx(ctx).Debug().Str("program", e.Program).Strs("args", full).Msg("running engine")

	captured := &limitedBuffer{max: stderrCaptureBytes}
	cmd := exec.CommandContext(ctx, e.Program, full...)
	cmd.Stdout = orDiscard(stdout)
	cmd.Stderr = io.MultiWriter(orDiscard(e.Stderr), captured)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = e.TermGrace
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultTermGrace
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: timeout after %s", e.Program, sub, e.Timeout)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Program: e.Program, Subcommand: sub, Code: exitErr.ExitCode(), Detail: firstLine(captured.String())}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("program %s not found", e.Program)
	}
	return fmt.Errorf("program %s start failed: %w", e.Program, err)
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
