package backtest

import (
	"context"

	"github.com/rustyeddy/tradesim/journal"
)

// Strategy is the capability set a concrete strategy composes into a
// Backtest: parameter validation, the calculation pass that produces trade
// series, and any extra fields it wants carried in reports.
type Strategy interface {
	Name() string
	ValidateParams(params map[string]string) error
	Calculate(ctx context.Context, b *Backtest) error
	ExtraFields() map[string]string
}

// Resumer is the optional resume capability. Strategies that can hydrate a
// backtest from a prior persisted run with the same bt_id implement it; the
// bool result reports whether anything was resumed.
type Resumer interface {
	ConfigFromStorage(ctx context.Context, b *Backtest, j journal.Journal) (bool, error)
}

// NopStrategy accepts any parameters and calculates nothing. Useful for
// replaying externally supplied trade series through the simulator.
type NopStrategy struct{}

func (NopStrategy) Name() string                               { return "nop" }
func (NopStrategy) ValidateParams(map[string]string) error     { return nil }
func (NopStrategy) Calculate(context.Context, *Backtest) error { return nil }
func (NopStrategy) ExtraFields() map[string]string             { return nil }

// ReplayStrategy calculates nothing but resumes a prior persisted run with
// the same bt_id, so stored open trades can be replayed against fresh bars.
type ReplayStrategy struct {
	NopStrategy
}

func (ReplayStrategy) Name() string { return "replay" }

func (ReplayStrategy) ConfigFromStorage(ctx context.Context, b *Backtest, j journal.Journal) (bool, error) {
	return Hydrate(ctx, b, j)
}
