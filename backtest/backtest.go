package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/sim"
)

// State progression of a backtest run.
const (
	StateCreated    = "CREATED"
	StateConfigured = "CONFIGURED_FROM_STORAGE"
	StateLoaded     = "CHARTS_LOADED"
	StateCalculated = "CALCULATED"
	StateStored     = "STORED"
)

// Backtest groups trade series produced by one parameterized strategy run.
// It holds identity-based relations: contained series are matched and
// replaced by ts_id, and the journal is the arena that resolves trade
// ownership.
type Backtest struct {
	BtID   string
	Name   string
	Params map[string]string

	Symbol    market.Symbol
	Timeframe market.Timeframe
	StartDt   time.Time
	EndDt     time.Time

	// BarChart is the fine-grained replay feed; BaseChart is the strategy
	// timeframe the trades were signalled on.
	BarChart  *market.History
	BaseChart *market.History

	Series []*sim.TradeSeries
	State  string

	strategy Strategy
	log      *zap.Logger
}

// New creates a backtest. An empty btID defaults to the name.
func New(name, btID string, sym market.Symbol, tf market.Timeframe, start, end time.Time, params map[string]string) *Backtest {
	if btID == "" {
		btID = name
	}
	return &Backtest{
		BtID:      btID,
		Name:      name,
		Params:    params,
		Symbol:    sym,
		Timeframe: tf,
		StartDt:   start,
		EndDt:     end,
		State:     StateCreated,
		log:       zap.NewNop(),
	}
}

func (b *Backtest) SetStrategy(s Strategy) { b.strategy = s }

func (b *Backtest) SetLogger(l *zap.Logger) {
	if l != nil {
		b.log = l
	}
}

// FindSeries returns the contained series with the given ts_id, or nil.
func (b *Backtest) FindSeries(tsID string) *sim.TradeSeries {
	for _, ts := range b.Series {
		if ts.TsID == tsID {
			return ts
		}
	}
	return nil
}

// UpdateTradeSeries adds the series, replacing any existing series with the
// same ts_id instead of duplicating it. When purge is set and a journal is
// given, the replaced series' persisted trades are deleted first.
func (b *Backtest) UpdateTradeSeries(ctx context.Context, ts *sim.TradeSeries, purge bool, j journal.Journal) error {
	ts.BtID = b.BtID
	for _, t := range ts.Trades {
		t.BtID = b.BtID
	}

	for i, old := range b.Series {
		if old.TsID != ts.TsID {
			continue
		}
		if purge && j != nil {
			if err := j.DeleteTradesByTsID(ctx, old.TsID); err != nil {
				return fmt.Errorf("purge series %s trades: %w", old.TsID, err)
			}
		}
		b.Series[i] = ts
		return nil
	}

	b.Series = append(b.Series, ts)
	return nil
}

// RemoveTradeSeries removes a series by identity. With cascade set and a
// journal given, the persisted series and its trades are deleted too.
func (b *Backtest) RemoveTradeSeries(ctx context.Context, tsID string, cascade bool, j journal.Journal) error {
	for i, ts := range b.Series {
		if ts.TsID != tsID {
			continue
		}
		b.Series = append(b.Series[:i], b.Series[i+1:]...)
		if cascade && j != nil {
			if err := j.DeleteTradesByTsID(ctx, tsID); err != nil {
				return fmt.Errorf("cascade delete trades %s: %w", tsID, err)
			}
			if err := j.DeleteSeries(ctx, tsID); err != nil {
				return fmt.Errorf("cascade delete series %s: %w", tsID, err)
			}
		}
		return nil
	}
	return fmt.Errorf("series %q not found in backtest %s", tsID, b.BtID)
}

// LoadCharts attaches both price histories and narrows the backtest dates to
// the bars actually available, so requested dates beyond stored history never
// produce silent gaps.
func (b *Backtest) LoadCharts(ctx context.Context, p market.Provider, barTF market.Timeframe) error {
	b.BarChart = market.NewHistory(b.Symbol, barTF, nil)
	if err := b.BarChart.Load(ctx, p, b.StartDt, b.EndDt); err != nil {
		return err
	}
	b.BaseChart = market.NewHistory(b.Symbol, b.Timeframe, nil)
	if err := b.BaseChart.Load(ctx, p, b.StartDt, b.EndDt); err != nil {
		return err
	}

	start, end := b.BarChart.Coverage()
	if start.IsZero() {
		return fmt.Errorf("no %s bars for %s between %s and %s",
			barTF, b.Symbol.Name, b.StartDt.Format(time.DateOnly), b.EndDt.Format(time.DateOnly))
	}
	if start.After(b.StartDt) {
		b.StartDt = start
	}
	if end.Before(b.EndDt) {
		b.EndDt = end
	}

	b.log.Info("charts loaded",
		zap.String("bt_id", b.BtID),
		zap.Int("bars", len(b.BarChart.Bars)),
		zap.Int("base_bars", len(b.BaseChart.Bars)),
		zap.Time("start", b.StartDt),
		zap.Time("end", b.EndDt))

	b.State = StateLoaded
	return nil
}

// RestrictDates narrows the backtest range and cascades the same
// narrow-only contract to every contained series and both charts.
func (b *Backtest) RestrictDates(start, end time.Time) error {
	if start.Before(b.StartDt) {
		return fmt.Errorf("%w: start %s widens backtest %s start %s",
			sim.ErrRange, start.Format(time.DateOnly), b.BtID, b.StartDt.Format(time.DateOnly))
	}
	if end.After(b.EndDt) {
		return fmt.Errorf("%w: end %s widens backtest %s end %s",
			sim.ErrRange, end.Format(time.DateOnly), b.BtID, b.EndDt.Format(time.DateOnly))
	}
	b.StartDt = start
	b.EndDt = end

	for _, ts := range b.Series {
		// Series bounds may already be narrower; clamp before cascading.
		s, e := start, end
		if ts.StartDt.After(s) {
			s = ts.StartDt
		}
		if ts.EndDt.Before(e) {
			e = ts.EndDt
		}
		if err := ts.RestrictDates(s, e); err != nil {
			return err
		}
	}
	if b.BarChart != nil {
		b.BarChart.Narrow(start, end)
	}
	if b.BaseChart != nil {
		b.BaseChart.Narrow(start, end)
	}
	return nil
}

// ConfigFromStorage hydrates parameters and series from a prior persisted
// run sharing this bt_id. The base behavior without a resuming strategy is a
// no-op reporting not-resumed; strategies that implement Resumer take over.
// Resume is idempotent: re-running it against the same stored state yields
// the same backtest.
func (b *Backtest) ConfigFromStorage(ctx context.Context, j journal.Journal) (bool, error) {
	r, ok := b.strategy.(Resumer)
	if !ok {
		return false, nil
	}
	resumed, err := r.ConfigFromStorage(ctx, b, j)
	if err != nil {
		return false, err
	}
	if resumed {
		b.State = StateConfigured
		b.log.Info("resumed from storage", zap.String("bt_id", b.BtID), zap.Int("series", len(b.Series)))
	}
	return resumed, nil
}

// Calculate validates parameters and runs the strategy calculation. Without
// a strategy it is a no-op.
func (b *Backtest) Calculate(ctx context.Context) error {
	if b.strategy == nil {
		b.State = StateCalculated
		return nil
	}
	if err := b.strategy.ValidateParams(b.Params); err != nil {
		return fmt.Errorf("%w: %v", sim.ErrValidation, err)
	}
	if err := b.strategy.Calculate(ctx, b); err != nil {
		return err
	}
	b.State = StateCalculated
	return nil
}

// Record produces the canonical plain-value form of the backtest.
func (b *Backtest) Record() journal.BacktestRecord {
	params, _ := json.Marshal(b.Params)
	return journal.BacktestRecord{
		BtID:    b.BtID,
		Name:    b.Name,
		Params:  params,
		StartDt: b.StartDt.UTC().Format(sim.TimeLayout),
		EndDt:   b.EndDt.UTC().Format(sim.TimeLayout),
		State:   b.State,
	}
}

// Hydrate loads the series and trades persisted under b.BtID and attaches
// them to the backtest, replacing same-identity series. It reports whether
// anything was found. Strategies typically call this from ConfigFromStorage.
func Hydrate(ctx context.Context, b *Backtest, j journal.Journal) (bool, error) {
	seriesRecs, err := j.ListSeriesByBtID(ctx, b.BtID)
	if err != nil {
		return false, fmt.Errorf("list series for %s: %w", b.BtID, err)
	}
	if len(seriesRecs) == 0 {
		return false, nil
	}

	for _, sr := range seriesRecs {
		ts, err := sim.SeriesFromRecord(sr)
		if err != nil {
			return false, err
		}
		tradeRecs, err := j.ListTradesByTsID(ctx, ts.TsID)
		if err != nil {
			return false, fmt.Errorf("list trades for %s: %w", ts.TsID, err)
		}
		for _, tr := range tradeRecs {
			t, err := sim.TradeFromRecord(tr)
			if err != nil {
				return false, err
			}
			ts.AddTrade(t)
		}
		ts.SortTrades()
		if err := b.UpdateTradeSeries(ctx, ts, false, nil); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Store persists the backtest, its series and their trades.
func (b *Backtest) Store(ctx context.Context, j journal.Journal) error {
	b.State = StateStored
	if err := j.StoreBacktest(ctx, b.Record()); err != nil {
		return fmt.Errorf("store backtest %s: %w", b.BtID, err)
	}
	for _, ts := range b.Series {
		if err := j.StoreSeries(ctx, ts.Record()); err != nil {
			return fmt.Errorf("store series %s: %w", ts.TsID, err)
		}
		for _, t := range ts.Trades {
			if err := j.StoreTrade(ctx, t.Record()); err != nil {
				return fmt.Errorf("store trade %s/%s: %w", ts.TsID, t.OpenTime.Format(sim.TimeLayout), err)
			}
		}
	}
	return nil
}
