// Command m2p converts a Markdown file into a PDF with the default engine:
//
//	m2p report.md [font]
//	m2p fonts
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/hzqd/m2p/internal/config"
	"github.com/hzqd/m2p/internal/engine"
	"github.com/hzqd/m2p/internal/fonts"
	"github.com/hzqd/m2p/internal/shortcut"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Default()
	conv := &shortcut.Converter{
		Compiler: engine.New(cfg.Engine, os.Stdout, os.Stderr),
		Fonts:    fonts.New(os.Stdout, cfg.Fonts),
	}
	if err := conv.Run(ctx, os.Args); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
