package sim

import (
	"fmt"
	"time"

	"github.com/rustyeddy/tradesim/market"
)

// TimeLayout is the canonical datetime format used at the serialization
// boundary. Records are the round-trippable plain-value form of each entity,
// used for persistence and for equality comparison in tests.
const TimeLayout = "2006-01-02 15:04:05"

// TradeRecord is the canonical flat representation of a Trade.
type TradeRecord struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	TsID    string `json:"ts_id"`
	BtID    string `json:"bt_id"`

	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	EntryPrice float64 `json:"entry_price"`
	OpenTime   string  `json:"open_time"`

	StopTicks  int     `json:"stop_ticks"`
	StopTarget float64 `json:"stop_target"`
	ProfTicks  int     `json:"prof_ticks"`
	ProfTarget float64 `json:"prof_target"`

	OffsetTicks  int    `json:"offset_ticks"`
	Timeframe    string `json:"timeframe"`
	TradingHours string `json:"trading_hours"`
	FirstMinOpen bool   `json:"first_min_open"`

	HighPrice  float64 `json:"high_price"`
	LowPrice   float64 `json:"low_price"`
	IsOpen     bool    `json:"is_open"`
	CloseDt    string  `json:"close_dt"` // empty while open
	ExitPrice  float64 `json:"exit_price"`
	Profitable bool    `json:"profitable"`
}

// Record produces the canonical plain-value form of the trade.
func (t *Trade) Record() TradeRecord {
	closeDt := ""
	if !t.CloseDt.IsZero() {
		closeDt = t.CloseDt.UTC().Format(TimeLayout)
	}
	return TradeRecord{
		Name:         t.Name,
		Version:      t.Version,
		TsID:         t.TsID,
		BtID:         t.BtID,
		Symbol:       t.Symbol.Name,
		Direction:    t.Direction.String(),
		EntryPrice:   t.EntryPrice,
		OpenTime:     t.OpenTime.UTC().Format(TimeLayout),
		StopTicks:    t.StopTicks,
		StopTarget:   t.StopTarget,
		ProfTicks:    t.ProfTicks,
		ProfTarget:   t.ProfTarget,
		OffsetTicks:  t.OffsetTicks,
		Timeframe:    string(t.Timeframe),
		TradingHours: t.TradingHours,
		FirstMinOpen: t.FirstMinOpen,
		HighPrice:    t.HighPrice,
		LowPrice:     t.LowPrice,
		IsOpen:       t.IsOpen,
		CloseDt:      closeDt,
		ExitPrice:    t.ExitPrice,
		Profitable:   t.Profitable,
	}
}

// TradeFromRecord rebuilds a trade from its canonical form, re-running
// construction validation and then restoring simulation state.
func TradeFromRecord(r TradeRecord) (*Trade, error) {
	sym, err := market.NormalizeSymbol(r.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	dir, err := ParseDirection(r.Direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	openTime, err := time.Parse(TimeLayout, r.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("%w: bad open time %q", ErrValidation, r.OpenTime)
	}

	t, err := NewTrade(TradeSpec{
		Name:         r.Name,
		Version:      r.Version,
		TsID:         r.TsID,
		BtID:         r.BtID,
		Symbol:       sym,
		Direction:    dir,
		EntryPrice:   r.EntryPrice,
		OpenTime:     openTime.UTC(),
		StopTicks:    r.StopTicks,
		StopTarget:   r.StopTarget,
		ProfTicks:    r.ProfTicks,
		ProfTarget:   r.ProfTarget,
		OffsetTicks:  r.OffsetTicks,
		Timeframe:    market.Timeframe(r.Timeframe),
		TradingHours: r.TradingHours,
	})
	if err != nil {
		return nil, err
	}

	t.HighPrice = r.HighPrice
	t.LowPrice = r.LowPrice
	if !r.IsOpen {
		closeDt, err := time.Parse(TimeLayout, r.CloseDt)
		if err != nil {
			return nil, fmt.Errorf("%w: bad close time %q", ErrValidation, r.CloseDt)
		}
		t.IsOpen = false
		t.CloseDt = closeDt.UTC()
		t.ExitPrice = r.ExitPrice
		t.Profitable = r.Profitable
		t.sawEntryBar = true
	}
	return t, nil
}

// SeriesRecord is the canonical flat representation of a TradeSeries. Owned
// trades are persisted separately and referenced by ts_id.
type SeriesRecord struct {
	TsID    string `json:"ts_id"`
	BtID    string `json:"bt_id"`
	Name    string `json:"name"`
	StartDt string `json:"start_dt"`
	EndDt   string `json:"end_dt"`
}

func (s *TradeSeries) Record() SeriesRecord {
	return SeriesRecord{
		TsID:    s.TsID,
		BtID:    s.BtID,
		Name:    s.Name,
		StartDt: s.StartDt.UTC().Format(TimeLayout),
		EndDt:   s.EndDt.UTC().Format(TimeLayout),
	}
}

// SeriesFromRecord rebuilds an empty series from its canonical form; trades
// are reattached by the caller from their own records.
func SeriesFromRecord(r SeriesRecord) (*TradeSeries, error) {
	start, err := time.Parse(TimeLayout, r.StartDt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start %q", ErrValidation, r.StartDt)
	}
	end, err := time.Parse(TimeLayout, r.EndDt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad end %q", ErrValidation, r.EndDt)
	}
	return NewTradeSeries(r.Name, r.TsID, r.BtID, start.UTC(), end.UTC()), nil
}
