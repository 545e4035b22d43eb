package market

import (
	"context"
	"fmt"
	"time"
)

// Provider returns an ordered, finite sequence of bars for a range and
// timeframe. Implementations must return bars in ascending time order.
type Provider interface {
	Bars(ctx context.Context, sym Symbol, tf Timeframe, start, end time.Time) ([]Bar, error)
}

// History holds an ordered bar sequence for one symbol and timeframe.
// Bars are expected in ascending time order; feeding them unsorted is a
// caller error and yields undefined results downstream.
type History struct {
	Symbol    Symbol
	Timeframe Timeframe
	Bars      []Bar
}

func NewHistory(sym Symbol, tf Timeframe, bars []Bar) *History {
	return &History{Symbol: sym, Timeframe: tf, Bars: bars}
}

// Load fills the history from a provider for [start, end].
func (h *History) Load(ctx context.Context, p Provider, start, end time.Time) error {
	bars, err := p.Bars(ctx, h.Symbol, h.Timeframe, start, end)
	if err != nil {
		return fmt.Errorf("load %s %s bars: %w", h.Symbol.Name, h.Timeframe, err)
	}
	h.Bars = bars
	return nil
}

// Coverage returns the first and last bar times, zero times when empty.
func (h *History) Coverage() (start, end time.Time) {
	if len(h.Bars) == 0 {
		return time.Time{}, time.Time{}
	}
	return h.Bars[0].Time, h.Bars[len(h.Bars)-1].Time
}

// Narrow drops bars outside [start, end]. It never widens: a zero bound is
// ignored.
func (h *History) Narrow(start, end time.Time) {
	kept := h.Bars[:0]
	for _, b := range h.Bars {
		if !start.IsZero() && b.Time.Before(start) {
			continue
		}
		if !end.IsZero() && b.Time.After(end) {
			continue
		}
		kept = append(kept, b)
	}
	h.Bars = kept
}

// From returns the bars at or after t, in order.
func (h *History) From(t time.Time) []Bar {
	for i, b := range h.Bars {
		if !b.Time.Before(t) {
			return h.Bars[i:]
		}
	}
	return nil
}
