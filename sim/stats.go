package sim

import (
	"math"
	"strings"
	"time"
)

// Stats summarizes the closed trades of one series. Every figure here is
// derived with the same first-minute exclusion flag; mixing flags across
// statistics of one series makes them incomparable.
type Stats struct {
	Trades  int
	Wins    int
	Losses  int
	WinRate float64 // percentage, 2 decimals

	// RiskReward is the aggregate ratio of summed stop ticks to summed
	// profit ticks; RiskRewardMin/Max are the per-trade extremes. They
	// answer different questions, so both are kept.
	RiskReward    float64
	RiskRewardMin float64
	RiskRewardMax float64

	TradingDays         int // distinct calendar dates with an entry
	TradesPerDay        float64
	TradesPerWeek       float64
	TradesPerTradingDay float64

	// Sequence is one character per closed trade in order, W or L, for
	// quick streak inspection.
	Sequence string
}

// Stats walks closed trades in series order. Trades must already be sorted
// by open time.
func (s *TradeSeries) Stats(includeFirstMin bool) Stats {
	var st Stats

	days := map[string]struct{}{}
	sumStop, sumProf := 0, 0
	var seq strings.Builder

	for _, t := range s.walkTrades(includeFirstMin) {
		st.Trades++
		if t.Profitable {
			st.Wins++
			seq.WriteByte('W')
		} else {
			st.Losses++
			seq.WriteByte('L')
		}

		days[t.OpenTime.Format(time.DateOnly)] = struct{}{}
		sumStop += t.StopTicks
		sumProf += t.ProfTicks

		if t.ProfTicks > 0 {
			rr := float64(t.StopTicks) / float64(t.ProfTicks)
			if st.RiskRewardMin == 0 || rr < st.RiskRewardMin {
				st.RiskRewardMin = round2(rr)
			}
			if rr > st.RiskRewardMax {
				st.RiskRewardMax = round2(rr)
			}
		}
	}

	st.Sequence = seq.String()
	st.TradingDays = len(days)

	if st.Trades > 0 {
		st.WinRate = round2(100 * float64(st.Wins) / float64(st.Trades))
	}
	if sumProf > 0 {
		st.RiskReward = round2(float64(sumStop) / float64(sumProf))
	}

	span := calendarDays(s.StartDt, s.EndDt)
	if span > 0 {
		st.TradesPerDay = round2(float64(st.Trades) / float64(span))
		st.TradesPerWeek = round2(float64(st.Trades) / (float64(span) / 7))
	}
	if st.TradingDays > 0 {
		st.TradesPerTradingDay = round2(float64(st.Trades) / float64(st.TradingDays))
	}

	return st
}

// WeekStats is one calendar-week bucket keyed by its Monday. SuccessRate is
// NaN for a week with no trades; 0 would be indistinguishable from a week of
// losses.
type WeekStats struct {
	Monday      time.Time
	Trades      int
	GainTicks   float64
	SuccessRate float64
}

// NilRate is the success-rate sentinel for empty weeks.
func NilRate() float64 { return math.NaN() }

// WeeklyStats buckets closed trades per calendar week. Buckets are
// pre-filled for every week spanning [StartDt, EndDt] inclusive, so
// consumers never see gaps: zero-trade weeks are present with the NaN
// success-rate sentinel.
func (s *TradeSeries) WeeklyStats(includeFirstMin bool) []WeekStats {
	if s.StartDt.IsZero() || s.EndDt.IsZero() || s.EndDt.Before(s.StartDt) {
		return nil
	}

	first := mondayOf(s.StartDt)
	last := mondayOf(s.EndDt)

	var weeks []WeekStats
	index := map[time.Time]int{}
	for m := first; !m.After(last); m = m.AddDate(0, 0, 7) {
		index[m] = len(weeks)
		weeks = append(weeks, WeekStats{Monday: m, SuccessRate: NilRate()})
	}

	wins := make([]int, len(weeks))
	for _, t := range s.walkTrades(includeFirstMin) {
		i, ok := index[mondayOf(t.OpenTime)]
		if !ok {
			continue
		}
		weeks[i].Trades++
		weeks[i].GainTicks = round2(weeks[i].GainTicks + t.GainTicks())
		if t.Profitable {
			wins[i]++
		}
	}

	for i := range weeks {
		if weeks[i].Trades > 0 {
			weeks[i].SuccessRate = round2(100 * float64(wins[i]) / float64(weeks[i].Trades))
		}
	}
	return weeks
}

func mondayOf(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func calendarDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	a := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours()/24) + 1
}
