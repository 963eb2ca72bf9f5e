package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/hzqd/m2p/internal/app"
	"github.com/hzqd/m2p/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := app.Run(ctx, os.Args[1:], app.Options{
		Stdout: os.Stdout,
		Stderr: report.Stderr(),
	})
	stop()
	os.Exit(code)
}
