// Package router dispatches a parsed command to the collaborator that owns it.
package router

import (
	"context"
	"fmt"

	"github.com/hzqd/m2p/internal/args"
)

type Compiler interface {
	Compile(ctx context.Context, cmd *args.CompileCommand) error
}

type Watcher interface {
	Watch(ctx context.Context, cmd *args.WatchCommand) error
}

type Querier interface {
	Query(ctx context.Context, cmd *args.QueryCommand) error
}

type FontLister interface {
	Fonts(ctx context.Context, cmd *args.FontsCommand) error
}

type Updater interface {
	Update(ctx context.Context, cmd *args.UpdateCommand) error
}

// Set holds one collaborator per command variant.
type Set struct {
	Compiler   Compiler
	Watcher    Watcher
	Querier    Querier
	FontLister FontLister
	Updater    Updater
}

// Route invokes exactly one collaborator of set, chosen by the type of cmd,
// and returns its result unchanged.
func Route(ctx context.Context, cmd args.Command, set Set) error {
	switch c := cmd.(type) {
	case *args.CompileCommand:
		return set.Compiler.Compile(ctx, c)
	case *args.WatchCommand:
		return set.Watcher.Watch(ctx, c)
	case *args.QueryCommand:
		return set.Querier.Query(ctx, c)
	case *args.FontsCommand:
		return set.FontLister.Fonts(ctx, c)
	case *args.UpdateCommand:
		return set.Updater.Update(ctx, c)
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}
