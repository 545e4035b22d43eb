package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	t.Parallel()

	start, end := seriesRange()
	s := NewTradeSeries("stats", "", "", start, end)

	// Two wins and a loss across two calendar days.
	day1 := start.Add(14*time.Hour + 31*time.Minute)
	day2 := start.AddDate(0, 0, 1).Add(14*time.Hour + 31*time.Minute)
	s.AddTrade(closedTrade(t, day1, 20))                  // W, stop 20 / prof 20
	s.AddTrade(closedTrade(t, day1.Add(time.Hour), -10))  // L, stop 10 / prof 20
	s.AddTrade(closedTrade(t, day2, 5))                   // W, stop 20 / prof 5
	s.SortTrades()

	st := s.Stats(true)
	assert.Equal(t, 3, st.Trades)
	assert.Equal(t, 2, st.Wins)
	assert.Equal(t, 1, st.Losses)
	assert.Equal(t, 66.67, st.WinRate)
	assert.Equal(t, "WLW", st.Sequence)

	// Aggregate R:R is summed stops over summed profits; the per-trade
	// extremes answer a different question and are kept separately.
	assert.Equal(t, round2(50.0/45.0), st.RiskReward)
	assert.Equal(t, 0.5, st.RiskRewardMin)
	assert.Equal(t, 4.0, st.RiskRewardMax)

	assert.Equal(t, 2, st.TradingDays)
	assert.Equal(t, round2(3.0/21.0), st.TradesPerDay)
	assert.Equal(t, 1.0, st.TradesPerWeek)
	assert.Equal(t, 1.5, st.TradesPerTradingDay)
}

func TestStatsEmpty(t *testing.T) {
	t.Parallel()

	start, end := seriesRange()
	s := NewTradeSeries("empty", "", "", start, end)

	st := s.Stats(true)
	assert.Equal(t, 0, st.Trades)
	assert.Equal(t, 0.0, st.WinRate)
	assert.Equal(t, "", st.Sequence)
	assert.Equal(t, 0, st.TradingDays)
}

func TestWeeklyStatsBuckets(t *testing.T) {
	t.Parallel()

	// 2024-01-01 is a Monday; three full weeks.
	start, end := seriesRange()
	s := NewTradeSeries("weekly", "", "", start, end)

	wk1 := start.Add(14*time.Hour + 31*time.Minute)
	wk3 := start.AddDate(0, 0, 15).Add(14*time.Hour + 31*time.Minute)
	s.AddTrade(closedTrade(t, wk1, 20))                 // +20 ticks
	s.AddTrade(closedTrade(t, wk1.Add(time.Hour), -10)) // -10 ticks
	s.AddTrade(closedTrade(t, wk3, 5))                  // +5 ticks
	s.SortTrades()

	weeks := s.WeeklyStats(true)
	require.Len(t, weeks, 3, "one bucket per calendar week, gaps filled")

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), weeks[0].Monday)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), weeks[1].Monday)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), weeks[2].Monday)

	assert.Equal(t, 2, weeks[0].Trades)
	assert.Equal(t, 10.0, weeks[0].GainTicks)
	assert.Equal(t, 50.0, weeks[0].SuccessRate)

	// A week with no trades is present with the non-numeric sentinel, so
	// it can never be confused with a week of losses.
	assert.Equal(t, 0, weeks[1].Trades)
	assert.True(t, math.IsNaN(weeks[1].SuccessRate))

	assert.Equal(t, 1, weeks[2].Trades)
	assert.Equal(t, 5.0, weeks[2].GainTicks)
	assert.Equal(t, 100.0, weeks[2].SuccessRate)
}

func TestWeeklyStatsFirstMinFlag(t *testing.T) {
	t.Parallel()

	start, end := seriesRange()
	s := NewTradeSeries("weekly-fm", "", "", start, end)

	firstMin := closedTrade(t, start.Add(15*time.Hour), 20)
	require.True(t, firstMin.FirstMinOpen)
	s.AddTrade(firstMin)

	weeks := s.WeeklyStats(false)
	require.Len(t, weeks, 3)
	assert.Equal(t, 0, weeks[0].Trades)
	assert.True(t, math.IsNaN(weeks[0].SuccessRate))

	weeks = s.WeeklyStats(true)
	assert.Equal(t, 1, weeks[0].Trades)
}

func TestMondayOf(t *testing.T) {
	t.Parallel()

	// Sunday 2024-01-07 belongs to the week of Monday 2024-01-01.
	sun := time.Date(2024, 1, 7, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), mondayOf(sun))

	mon := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, mon, mondayOf(mon))
}
