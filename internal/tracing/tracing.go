// Package tracing configures logging and the optional timings trace of an
// m2p-cli run.
package tracing

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hzqd/m2p/internal/args"
	"github.com/rs/zerolog"
)

// Guard owns an open timings trace. Close flushes and releases it. A nil
// Guard records nothing.
type Guard struct {
	file    *os.File
	events  zerolog.Logger
	session string
	start   time.Time

	once     sync.Once
	closeErr error
}

// Setup opens the trace requested by --timings. It returns a nil Guard when
// no trace was requested.
func Setup(cli args.CliArguments) (*Guard, error) {
	if cli.Timings == "" {
		return nil, nil
	}
	f, err := os.Create(cli.Timings)
	if err != nil {
		return nil, fmt.Errorf("create timings file: %w", err)
	}
	g := &Guard{
		file:    f,
		session: uuid.NewString(),
		start:   time.Now(),
	}
	g.events = zerolog.New(f).With().Str("session", g.session).Logger()
	g.events.Log().Str("ph", "B").Int64("ts", g.start.UnixMicro()).Msg("session")
	return g, nil
}

// Session returns the uuid tagging every event of the trace.
func (g *Guard) Session() string {
	if g == nil {
		return ""
	}
	return g.session
}

// Span starts a timed span; the returned func ends it.
func (g *Guard) Span(name string) func() {
	if g == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		g.events.Log().
			Str("name", name).
			Str("ph", "X").
			Int64("ts", start.UnixMicro()).
			Int64("dur", time.Since(start).Microseconds()).
			Msg("span")
	}
}

// Close ends the session and closes the trace file. Only the first call has
// an effect.
func (g *Guard) Close() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		g.events.Log().
			Str("ph", "E").
			Int64("ts", time.Now().UnixMicro()).
			Int64("dur", time.Since(g.start).Microseconds()).
			Msg("session")
		g.closeErr = errors.Join(g.file.Sync(), g.file.Close())
	})
	return g.closeErr
}
