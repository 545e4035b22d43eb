// Package indicators provides streaming technical indicators for bar data.
package indicators

import "github.com/rustyeddy/tradesim/market"

// Indicator computes a single streaming value from closed bars.
// It is deterministic, so replays and backtests of the same bars
// always produce the same values.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value is meaningful.
	Ready() bool

	// Value returns the current indicator value; callers should check Ready
	// first.
	Value() float64
}
