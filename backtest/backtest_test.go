package backtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/sim"
)

var es = market.Symbols["ES"]

func btRange() (time.Time, time.Time) {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
}

func newTestJournal(t *testing.T) *journal.SQLite {
	t.Helper()

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

// newTrade opens a long ES trade at 5000 with 20-tick boundaries. win > 0
// closes it at the profit target, win < 0 at the stop, win == 0 leaves it
// open after a neutral entry bar.
func newTrade(t *testing.T, openTime time.Time, win int) *sim.Trade {
	t.Helper()

	tr, err := sim.NewTrade(sim.TradeSpec{
		Name:       "bt test",
		Symbol:     es,
		Direction:  sim.Long,
		EntryPrice: 5000,
		OpenTime:   openTime,
		StopTicks:  20,
		ProfTicks:  20,
		Timeframe:  market.M30,
	})
	require.NoError(t, err)

	var bar market.Bar
	switch {
	case win > 0:
		bar = market.Bar{Time: openTime, Open: 5000, High: 5005, Low: 5000, Close: 5005}
	case win < 0:
		bar = market.Bar{Time: openTime, Open: 5000, High: 5001, Low: 4994, Close: 4996}
	default:
		bar = market.Bar{Time: openTime, Open: 5000, High: 5001, Low: 4999, Close: 5000}
	}
	closed, err := tr.CandleUpdate(bar)
	require.NoError(t, err)
	assert.Equal(t, win != 0, closed)
	return tr
}

func newSeries(t *testing.T, tsID string, wins ...int) *sim.TradeSeries {
	t.Helper()

	start, end := btRange()
	ts := sim.NewTradeSeries("bt test", tsID, "", start, end)
	openTime := time.Date(2024, 3, 4, 9, 31, 0, 0, time.UTC)
	for i, w := range wins {
		ts.AddTrade(newTrade(t, openTime.Add(time.Duration(i)*time.Hour), w))
	}
	return ts
}

func TestUpdateTradeSeriesReplacesByIdentity(t *testing.T) {
	t.Parallel()

	start, end := btRange()
	b := New("march", "bt-1", es, market.M30, start, end, nil)
	ctx := context.Background()

	first := newSeries(t, "ts-1", 1)
	require.NoError(t, b.UpdateTradeSeries(ctx, first, false, nil))
	require.Len(t, b.Series, 1)
	assert.Equal(t, "bt-1", first.BtID)
	assert.Equal(t, "bt-1", first.Trades[0].BtID)

	// Same identity replaces in place.
	second := newSeries(t, "ts-1", 1, -1)
	require.NoError(t, b.UpdateTradeSeries(ctx, second, false, nil))
	require.Len(t, b.Series, 1)
	assert.Same(t, second, b.Series[0])

	// A different identity appends.
	require.NoError(t, b.UpdateTradeSeries(ctx, newSeries(t, "ts-2", 1), false, nil))
	assert.Len(t, b.Series, 2)
	assert.NotNil(t, b.FindSeries("ts-2"))
	assert.Nil(t, b.FindSeries("ts-9"))
}

func TestUpdateTradeSeriesPurge(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	ctx := context.Background()

	start, end := btRange()
	b := New("march", "bt-1", es, market.M30, start, end, nil)

	first := newSeries(t, "ts-1", 1)
	require.NoError(t, b.UpdateTradeSeries(ctx, first, false, nil))
	require.NoError(t, j.StoreTrade(ctx, first.Trades[0].Record()))

	require.NoError(t, b.UpdateTradeSeries(ctx, newSeries(t, "ts-1", -1), true, j))

	recs, err := j.ListTradesByTsID(ctx, "ts-1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRemoveTradeSeriesCascade(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	ctx := context.Background()

	start, end := btRange()
	b := New("march", "bt-1", es, market.M30, start, end, nil)
	ts := newSeries(t, "ts-1", 1, -1)
	require.NoError(t, b.UpdateTradeSeries(ctx, ts, false, nil))
	require.NoError(t, b.Store(ctx, j))

	require.NoError(t, b.RemoveTradeSeries(ctx, "ts-1", true, j))
	assert.Empty(t, b.Series)

	recs, err := j.ListTradesByTsID(ctx, "ts-1")
	require.NoError(t, err)
	assert.Empty(t, recs)
	_, err = j.GetSeries(ctx, "ts-1")
	assert.Error(t, err)

	assert.Error(t, b.RemoveTradeSeries(ctx, "ts-1", false, nil))
}

func TestRestrictDates(t *testing.T) {
	t.Parallel()

	start, end := btRange()
	b := New("march", "bt-1", es, market.M30, start, end, nil)
	ts := newSeries(t, "ts-1", 1, -1)
	require.NoError(t, b.UpdateTradeSeries(context.Background(), ts, false, nil))

	// Widening either bound is rejected.
	err := b.RestrictDates(start.Add(-24*time.Hour), end)
	assert.ErrorIs(t, err, sim.ErrRange)
	err = b.RestrictDates(start, end.Add(24*time.Hour))
	assert.ErrorIs(t, err, sim.ErrRange)

	// Narrowing past the second trade's open drops it from the series.
	newEnd := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, b.RestrictDates(start, newEnd))
	assert.Equal(t, newEnd, b.EndDt)
	assert.Len(t, ts.Trades, 1)
	assert.Equal(t, newEnd, ts.EndDt)
}

type stubProvider struct {
	bars []market.Bar
}

func (p stubProvider) Bars(_ context.Context, _ market.Symbol, _ market.Timeframe, start, end time.Time) ([]market.Bar, error) {
	var out []market.Bar
	for _, b := range p.bars {
		if !start.IsZero() && b.Time.Before(start) {
			continue
		}
		if !end.IsZero() && b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func TestLoadChartsNarrowsToCoverage(t *testing.T) {
	t.Parallel()

	covStart := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	var bars []market.Bar
	for i := 0; i < 60; i++ {
		bars = append(bars, market.Bar{
			Time: covStart.Add(time.Duration(i) * time.Minute),
			Open: 5000, High: 5001, Low: 4999, Close: 5000,
		})
	}

	start, end := btRange()
	b := New("march", "bt-1", es, market.M30, start, end, nil)
	require.NoError(t, b.LoadCharts(context.Background(), stubProvider{bars: bars}, market.M1))

	// Requested a month, stored history covers one hour.
	assert.Equal(t, covStart, b.StartDt)
	assert.Equal(t, covStart.Add(59*time.Minute), b.EndDt)
	assert.Equal(t, StateLoaded, b.State)
	assert.Len(t, b.BarChart.Bars, 60)

	// No bars at all is an error, not an empty run.
	empty := New("march", "bt-2", es, market.M30, start, end, nil)
	assert.Error(t, empty.LoadCharts(context.Background(), stubProvider{}, market.M1))
}

func TestConfigFromStorageWithoutResumer(t *testing.T) {
	t.Parallel()

	start, end := btRange()
	b := New("march", "bt-1", es, market.M30, start, end, nil)
	b.SetStrategy(NopStrategy{})

	resumed, err := b.ConfigFromStorage(context.Background(), newTestJournal(t))
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, StateCreated, b.State)
}

func TestReplayStrategyResume(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	ctx := context.Background()
	start, end := btRange()

	stored := New("march", "bt-1", es, market.M30, start, end, map[string]string{"fast": "9"})
	require.NoError(t, stored.UpdateTradeSeries(ctx, newSeries(t, "ts-1", 1, -1, 0), false, nil))
	require.NoError(t, stored.Store(ctx, j))

	fresh := New("march", "bt-1", es, market.M30, start, end, nil)
	fresh.SetStrategy(ReplayStrategy{})
	resumed, err := fresh.ConfigFromStorage(ctx, j)
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, StateConfigured, fresh.State)

	ts := fresh.FindSeries("ts-1")
	require.NotNil(t, ts)
	require.Len(t, ts.Trades, 3)
	assert.False(t, ts.Trades[0].IsOpen)
	assert.True(t, ts.Trades[2].IsOpen)

	// Resuming again replaces by identity, no duplicates.
	resumed, err = fresh.ConfigFromStorage(ctx, j)
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Len(t, fresh.Series, 1)
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	ctx := context.Background()
	start, end := btRange()

	b := New("march", "bt-1", es, market.M30, start, end, nil)
	b.SetStrategy(NopStrategy{})

	// One win, one loss, one still open.
	ts := newSeries(t, "ts-1", 1, -1, 0)
	require.NoError(t, b.UpdateTradeSeries(ctx, ts, false, nil))

	// Bar chart that closes the open trade at its profit target. The open
	// trade starts at 11:31; a later bar clearing the target by a tick fills.
	open := ts.Trades[2].OpenTime
	b.BarChart = market.NewHistory(es, market.M1, []market.Bar{
		{Time: open.Add(time.Minute), Open: 5001, High: 5006, Low: 5001, Close: 5005},
	})

	r := Runner{
		Backtest: b,
		Journal:  j,
		Account: AccountParams{
			Balance:       1000,
			DrawdownLimit: 2500,
			Contracts:     1,
			ContractValue: 20,
			ContractFee:   0,
		},
		Options: RunnerOptions{IncludeFirstMin: true},
	}

	res, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, "bt-1", res.BtID)
	assert.False(t, res.Resumed)
	assert.Equal(t, 1, res.Series)
	assert.Equal(t, 3, res.Trades)
	assert.Equal(t, 2, res.Wins)
	assert.Equal(t, 1, res.Losses)

	// +5 points, -5 points, +5 points at 20/point.
	assert.Equal(t, 1000.0, res.StartBalance)
	assert.Equal(t, 1100.0, res.EndBalance)
	assert.False(t, res.Liquidated)
	assert.Equal(t, StateStored, b.State)

	// Everything was persisted.
	recs, err := j.ListTradesByBtID(ctx, "bt-1")
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	stored, err := j.GetBacktest(ctx, "bt-1")
	require.NoError(t, err)
	assert.Equal(t, StateStored, stored.State)
}
