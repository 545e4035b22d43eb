package sim

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TradeSeries is an ordered collection of trades sharing one strategy
// identity. It exclusively owns the ts_id stamping of its trades and chains
// their balance/drawdown impacts into one running account simulation.
//
// Ordering is a caller precondition: AddTrade appends without reordering, and
// every computation that assumes open-time order requires SortTrades (or
// in-order insertion) first.
type TradeSeries struct {
	TsID string
	BtID string
	Name string

	StartDt time.Time
	EndDt   time.Time

	Trades []*Trade
}

// DeriveTsID builds a stable series identity from a name and its parameter
// set. Keys are sorted so the same parameters always yield the same id.
func DeriveTsID(name string, params map[string]string) string {
	id := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	if len(params) == 0 {
		return id
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return id + "-" + strings.Join(parts, "-")
}

// NewTradeSeries creates an empty series. An empty tsID derives the identity
// from the name.
func NewTradeSeries(name, tsID, btID string, start, end time.Time) *TradeSeries {
	if tsID == "" {
		tsID = DeriveTsID(name, nil)
	}
	return &TradeSeries{
		TsID:    tsID,
		BtID:    btID,
		Name:    name,
		StartDt: start,
		EndDt:   end,
	}
}

// AddTrade appends the trade and stamps it with the series identity.
func (s *TradeSeries) AddTrade(t *Trade) {
	t.TsID = s.TsID
	t.BtID = s.BtID
	s.Trades = append(s.Trades, t)
}

// SortTrades orders trades by open time ascending.
func (s *TradeSeries) SortTrades() {
	sort.SliceStable(s.Trades, func(i, j int) bool {
		return s.Trades[i].OpenTime.Before(s.Trades[j].OpenTime)
	})
}

// RestrictDates narrows the series date range and drops trades whose open
// time falls outside the new bounds. Widening either bound is an ErrRange.
func (s *TradeSeries) RestrictDates(start, end time.Time) error {
	if start.Before(s.StartDt) {
		return fmt.Errorf("%w: start %s widens series %s start %s",
			ErrRange, start.Format(time.DateOnly), s.TsID, s.StartDt.Format(time.DateOnly))
	}
	if end.After(s.EndDt) {
		return fmt.Errorf("%w: end %s widens series %s end %s",
			ErrRange, end.Format(time.DateOnly), s.TsID, s.EndDt.Format(time.DateOnly))
	}
	s.StartDt = start
	s.EndDt = end

	kept := s.Trades[:0]
	for _, t := range s.Trades {
		if t.OpenTime.Before(start) || t.OpenTime.After(end) {
			continue
		}
		kept = append(kept, t)
	}
	s.Trades = kept
	return nil
}

// walkTrades yields the closed trades that participate in a chained walk,
// honoring the first-minute exclusion. Open trades contribute no data and
// are skipped.
func (s *TradeSeries) walkTrades(includeFirstMin bool) []*Trade {
	out := make([]*Trade, 0, len(s.Trades))
	for _, t := range s.Trades {
		if t.IsOpen {
			continue
		}
		if !includeFirstMin && t.FirstMinOpen {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SeriesBalance is the chained running balance across a whole series.
// Liquidated latches once the running low touches or crosses zero; the walk
// continues past liquidation so downstream analysis can see the full
// magnitude.
type SeriesBalance struct {
	Open       float64
	Close      float64
	High       float64
	Low        float64
	GainLoss   float64
	Liquidated bool
}

// BalanceImpact threads each trade's closing balance into the next trade's
// opening balance. Trades must already be sorted by open time.
func (s *TradeSeries) BalanceImpact(balanceOpen float64, contracts int, contractValue, contractFee float64, includeFirstMin bool) SeriesBalance {
	out := SeriesBalance{
		Open:  round2(balanceOpen),
		Close: round2(balanceOpen),
		High:  round2(balanceOpen),
		Low:   round2(balanceOpen),
	}

	running := balanceOpen
	for _, t := range s.walkTrades(includeFirstMin) {
		b, ok := t.BalanceImpact(running, contracts, contractValue, contractFee)
		if !ok {
			continue
		}
		running = b.Close
		if b.High > out.High {
			out.High = b.High
		}
		if b.Low < out.Low {
			out.Low = b.Low
		}
		if out.Low <= 0 {
			out.Liquidated = true
		}
	}

	out.Close = round2(running)
	out.GainLoss = round2(running - balanceOpen)
	return out
}

// SeriesDrawdown is the chained trailing-drawdown simulation across a series.
type SeriesDrawdown struct {
	Open       float64
	Close      float64
	High       float64
	Low        float64
	Liquidated bool
}

// DrawdownImpact chains per-trade drawdown the same way BalanceImpact chains
// balance, against a fixed trailing limit. Trades must already be sorted.
func (s *TradeSeries) DrawdownImpact(drawdownOpen, drawdownLimit float64, contracts int, contractValue, contractFee float64, includeFirstMin bool) SeriesDrawdown {
	out := SeriesDrawdown{
		Open:  round2(drawdownOpen),
		Close: round2(drawdownOpen),
		High:  round2(drawdownOpen),
		Low:   round2(drawdownOpen),
	}

	running := drawdownOpen
	for _, t := range s.walkTrades(includeFirstMin) {
		d, ok := t.DrawdownImpact(running, drawdownLimit, contracts, contractValue, contractFee)
		if !ok {
			continue
		}
		running = d.Close
		if d.High > out.High {
			out.High = d.High
		}
		if d.Low < out.Low {
			out.Low = d.Low
		}
		if out.Low <= 0 {
			out.Liquidated = true
		}
	}

	out.Close = round2(running)
	return out
}
