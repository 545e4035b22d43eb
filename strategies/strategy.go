// Package strategies holds the concrete backtest strategies shipped with the
// simulator.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/tradesim/backtest"
)

// New returns the named strategy. An empty name defaults to replay.
func New(name string) (backtest.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "replay":
		return backtest.ReplayStrategy{}, nil

	case "nop", "none":
		return backtest.NopStrategy{}, nil

	case "ma-cross", "macross":
		return &MACross{}, nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: replay, nop, ma-cross)", name)
	}
}
