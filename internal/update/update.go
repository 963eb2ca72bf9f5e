// Package update selects the self-update strategy. Without the selfupdate
// build tag the executable cannot update itself and every update fails with
// ErrSelfUpdateDisabled.
package update

import (
	"context"
	"errors"

	"github.com/hzqd/m2p/internal/args"
)

// ErrSelfUpdateDisabled is returned by the Disabled updater.
var ErrSelfUpdateDisabled = errors.New("self-updating is not enabled for this executable, " +
	"please update with the package manager or mechanism used for initial installation")

// Updater performs a self-update.
type Updater interface {
	Update(ctx context.Context, cmd *args.UpdateCommand) error
}

// Disabled is the updater used when self-update is not compiled in.
type Disabled struct{}

// Update ignores cmd and always fails.
func (Disabled) Update(context.Context, *args.UpdateCommand) error {
	return ErrSelfUpdateDisabled
}

// Select returns external when self-update is compiled in, Disabled otherwise.
func Select(external Updater) Updater {
	return selectFor(Enabled, external)
}

func selectFor(enabled bool, external Updater) Updater {
	if !enabled || external == nil {
		return Disabled{}
	}
	return external
}
