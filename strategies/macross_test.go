package strategies

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradesim/backtest"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/sim"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	s, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "replay", s.Name())

	s, err = New("MA-Cross")
	require.NoError(t, err)
	assert.Equal(t, "ma-cross", s.Name())

	s, err = New("nop")
	require.NoError(t, err)
	assert.Equal(t, "nop", s.Name())

	_, err = New("hodl")
	assert.Error(t, err)
}

func TestMACrossValidateParams(t *testing.T) {
	t.Parallel()

	s := &MACross{}
	assert.NoError(t, s.ValidateParams(nil)) // defaults apply
	assert.NoError(t, s.ValidateParams(map[string]string{"fast": "5", "slow": "10"}))

	assert.Error(t, s.ValidateParams(map[string]string{"fast": "10", "slow": "5"}))
	assert.Error(t, s.ValidateParams(map[string]string{"fast": "ten"}))
	assert.Error(t, s.ValidateParams(map[string]string{"stop_ticks": "0"}))
}

func TestMACrossCalculate(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	closes := []float64{100, 100, 90, 110, 111}
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:  start.Add(time.Duration(i) * 30 * time.Minute),
			Open:  c + 1,
			High:  c + 2,
			Low:   c - 2,
			Close: c,
		}
	}

	params := map[string]string{"fast": "2", "slow": "3"}
	b := backtest.New("cross", "bt-1", market.Symbols["ES"], market.M30,
		start, start.Add(24*time.Hour), params)
	b.BaseChart = market.NewHistory(b.Symbol, b.Timeframe, bars)

	s := &MACross{}
	require.NoError(t, s.Calculate(context.Background(), b))

	ts := b.FindSeries("ma-cross-fast=2-slow=3")
	require.NotNil(t, ts)
	require.Len(t, ts.Trades, 1)

	// Fast EMA crosses back above slow on the 110 close; the trade fills at
	// the open of the following bar, a minute in.
	tr := ts.Trades[0]
	assert.Equal(t, sim.Long, tr.Direction)
	assert.Equal(t, 112.0, tr.EntryPrice)
	assert.Equal(t, start.Add(4*30*time.Minute+time.Minute), tr.OpenTime)
	assert.False(t, tr.FirstMinOpen)
	assert.True(t, tr.IsOpen)
	assert.Equal(t, 20, tr.StopTicks)
	assert.Equal(t, 40, tr.ProfTicks)

	assert.Equal(t, "2", s.ExtraFields()["fast"])
}

func TestMACrossCalculateNoChart(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	b := backtest.New("cross", "bt-1", market.Symbols["ES"], market.M30,
		start, start.Add(24*time.Hour), nil)

	s := &MACross{}
	assert.Error(t, s.Calculate(context.Background(), b))
}
