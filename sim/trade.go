package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/tradesim/market"
)

// Direction: +1 long, -1 short
type Direction int8

const (
	Long  Direction = +1
	Short Direction = -1
)

func (d Direction) Sign() float64 { return float64(d) }

func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "long":
		return Long, nil
	case "short":
		return Short, nil
	}
	return 0, fmt.Errorf("bad direction %q", s)
}

// tickTolerance bounds the float drift allowed when reconciling a tick count
// against a target price.
const tickTolerance = 1e-6

// TradeSpec carries everything needed to open a hypothetical trade. A zero
// tick count or target price means "not supplied"; at least one form of each
// risk boundary is required.
type TradeSpec struct {
	Name    string
	Version string
	TsID    string
	BtID    string

	Symbol     market.Symbol
	Direction  Direction
	EntryPrice float64
	OpenTime   time.Time

	StopTicks  int
	StopTarget float64
	ProfTicks  int
	ProfTarget float64

	OffsetTicks  int
	Timeframe    market.Timeframe
	TradingHours string
}

// Trade is a single simulated position. Risk parameters are immutable after
// construction; simulation state mutates bar by bar until the trade closes,
// after which the trade is read-only.
type Trade struct {
	Name    string
	Version string
	TsID    string
	BtID    string

	Symbol     market.Symbol
	Direction  Direction
	EntryPrice float64
	OpenTime   time.Time

	StopTicks  int
	StopTarget float64
	ProfTicks  int
	ProfTarget float64

	OffsetTicks  int
	Timeframe    market.Timeframe
	TradingHours string

	// FirstMinOpen marks a trade opened in the first minute of its parent
	// timeframe bar, so statistics can optionally exclude it.
	FirstMinOpen bool

	HighPrice  float64
	LowPrice   float64
	IsOpen     bool
	CloseDt    time.Time
	ExitPrice  float64
	Profitable bool

	sawEntryBar bool
}

// NewTrade validates the spec, reconciles tick counts with target prices and
// returns an open trade. Validation is fail-fast so invalid strategies never
// enter simulated history.
func NewTrade(spec TradeSpec) (*Trade, error) {
	if spec.Direction != Long && spec.Direction != Short {
		return nil, fmt.Errorf("%w: direction is required", ErrValidation)
	}
	if spec.EntryPrice <= 0 {
		return nil, fmt.Errorf("%w: entry price is required", ErrValidation)
	}
	if spec.Symbol.TickSize <= 0 {
		return nil, fmt.Errorf("%w: symbol tick size is required", ErrValidation)
	}
	if spec.OpenTime.IsZero() {
		return nil, fmt.Errorf("%w: open time is required", ErrValidation)
	}
	if !spec.Timeframe.Valid() {
		return nil, fmt.Errorf("%w: bad timeframe %q", ErrValidation, spec.Timeframe)
	}
	if spec.StopTicks == 0 && spec.StopTarget == 0 {
		return nil, fmt.Errorf("%w: stop_ticks or stop_target is required", ErrValidation)
	}
	if spec.ProfTicks == 0 && spec.ProfTarget == 0 {
		return nil, fmt.Errorf("%w: prof_ticks or prof_target is required", ErrValidation)
	}
	if spec.StopTicks < 0 || spec.ProfTicks < 0 || spec.OffsetTicks < 0 {
		return nil, fmt.Errorf("%w: tick counts must be non-negative", ErrConsistency)
	}

	sign := spec.Direction.Sign()
	tick := spec.Symbol.TickSize

	// Stop sits on the adverse side of entry, profit on the favorable side.
	stopTicks, stopTarget, err := reconcile(
		"stop", spec.StopTicks, spec.StopTarget, spec.EntryPrice, -sign*tick)
	if err != nil {
		return nil, err
	}
	profTicks, profTarget, err := reconcile(
		"profit", spec.ProfTicks, spec.ProfTarget, spec.EntryPrice, +sign*tick)
	if err != nil {
		return nil, err
	}

	t := &Trade{
		Name:         spec.Name,
		Version:      spec.Version,
		TsID:         spec.TsID,
		BtID:         spec.BtID,
		Symbol:       spec.Symbol,
		Direction:    spec.Direction,
		EntryPrice:   spec.EntryPrice,
		OpenTime:     spec.OpenTime,
		StopTicks:    stopTicks,
		StopTarget:   stopTarget,
		ProfTicks:    profTicks,
		ProfTarget:   profTarget,
		OffsetTicks:  spec.OffsetTicks,
		Timeframe:    spec.Timeframe,
		TradingHours: spec.TradingHours,
		FirstMinOpen: spec.Timeframe.FirstMinute(spec.OpenTime),
		HighPrice:    spec.EntryPrice,
		LowPrice:     spec.EntryPrice,
		IsOpen:       true,
	}
	return t, nil
}

// reconcile resolves one risk boundary from a tick count and/or a target
// price. step is the signed price move of one tick toward the boundary:
// target = entry + ticks*step.
func reconcile(kind string, ticks int, target, entry, step float64) (int, float64, error) {
	if ticks > 0 {
		want := entry + float64(ticks)*step
		if target != 0 && math.Abs(target-want) > tickTolerance {
			return 0, 0, fmt.Errorf("%w: %s target %v does not match %d ticks from entry %v (want %v)",
				ErrConsistency, kind, target, ticks, entry, want)
		}
		return ticks, want, nil
	}

	raw := (target - entry) / step
	if raw < 0 {
		return 0, 0, fmt.Errorf("%w: %s target %v is on the wrong side of entry %v",
			ErrConsistency, kind, target, entry)
	}
	n := math.Round(raw)
	if math.Abs(raw-n) > tickTolerance {
		return 0, 0, fmt.Errorf("%w: %s target %v is %v ticks from entry, not a whole number",
			ErrConsistency, kind, target, raw)
	}
	return int(n), target, nil
}

// CandleUpdate advances the trade by one bar and reports whether it closed.
// Bars must arrive in ascending time order.
//
// Fill rules:
//   - The stop takes priority when one bar touches both boundaries; the
//     favorable extreme is then pinned to the profit target rather than the
//     raw bar extreme (worst-case intrabar ordering).
//   - On the entry bar the profit target only fills when the bar CLOSES
//     through it; an intrabar spike before the order was live cannot be
//     trusted.
//   - On later bars the favorable extreme must clear the profit target by a
//     full tick, buffering against an exact and possibly unfilled touch.
func (t *Trade) CandleUpdate(bar market.Bar) (bool, error) {
	if !t.IsOpen {
		return false, fmt.Errorf("%w: candle update on closed trade %s/%s", ErrInvalidState, t.TsID, t.Name)
	}

	entryBar := !t.sawEntryBar
	t.sawEntryBar = true
	tick := t.Symbol.TickSize

	if t.Direction == Long {
		if bar.Low <= t.StopTarget {
			if bar.High >= t.ProfTarget+tick {
				t.HighPrice = math.Max(t.HighPrice, t.ProfTarget)
			} else {
				t.HighPrice = math.Max(t.HighPrice, bar.High)
			}
			t.LowPrice = math.Min(t.LowPrice, t.StopTarget)
			t.settle(t.StopTarget, bar.Time)
			return true, nil
		}

		t.LowPrice = math.Min(t.LowPrice, bar.Low)

		hit := false
		if entryBar {
			hit = bar.Close >= t.ProfTarget
		} else {
			hit = bar.High >= t.ProfTarget+tick
		}
		if hit {
			t.HighPrice = math.Max(t.HighPrice, t.ProfTarget)
			t.settle(t.ProfTarget, bar.Time)
			return true, nil
		}

		t.HighPrice = math.Max(t.HighPrice, bar.High)
		return false, nil
	}

	// Short: mirrored with high/low and sign reversed.
	if bar.High >= t.StopTarget {
		if bar.Low <= t.ProfTarget-tick {
			t.LowPrice = math.Min(t.LowPrice, t.ProfTarget)
		} else {
			t.LowPrice = math.Min(t.LowPrice, bar.Low)
		}
		t.HighPrice = math.Max(t.HighPrice, t.StopTarget)
		t.settle(t.StopTarget, bar.Time)
		return true, nil
	}

	t.HighPrice = math.Max(t.HighPrice, bar.High)

	hit := false
	if entryBar {
		hit = bar.Close <= t.ProfTarget
	} else {
		hit = bar.Low <= t.ProfTarget-tick
	}
	if hit {
		t.LowPrice = math.Min(t.LowPrice, t.ProfTarget)
		t.settle(t.ProfTarget, bar.Time)
		return true, nil
	}

	t.LowPrice = math.Min(t.LowPrice, bar.Low)
	return false, nil
}

// Close transitions the trade to its terminal state at the given price.
func (t *Trade) Close(price float64, dt time.Time) error {
	if !t.IsOpen {
		return fmt.Errorf("%w: close on closed trade %s/%s", ErrInvalidState, t.TsID, t.Name)
	}
	t.settle(price, dt)
	return nil
}

func (t *Trade) settle(price float64, dt time.Time) {
	t.IsOpen = false
	t.CloseDt = dt
	t.ExitPrice = price
	t.Profitable = (price-t.EntryPrice)*t.Direction.Sign() > 0
}

// GainTicks is the signed closed-trade move in ticks; 0 while open.
func (t *Trade) GainTicks() float64 {
	if t.IsOpen {
		return 0
	}
	return (t.ExitPrice - t.EntryPrice) * t.Direction.Sign() / t.Symbol.TickSize
}
