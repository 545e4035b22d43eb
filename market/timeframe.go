package market

import "time"

// Timeframe is the bar interval a trade or chart is built on.
type Timeframe string

const (
	M1  Timeframe = "1m"
	M5  Timeframe = "5m"
	M15 Timeframe = "15m"
	M30 Timeframe = "30m"
	H1  Timeframe = "1h"
	H4  Timeframe = "4h"
	D1  Timeframe = "1d"
)

var timeframeMinutes = map[Timeframe]int{
	M1:  1,
	M5:  5,
	M15: 15,
	M30: 30,
	H1:  60,
	H4:  240,
	D1:  1440,
}

func (tf Timeframe) Valid() bool {
	_, ok := timeframeMinutes[tf]
	return ok
}

// Minutes returns the bar length in minutes, 0 for an unknown timeframe.
func (tf Timeframe) Minutes() int {
	return timeframeMinutes[tf]
}

func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf.Minutes()) * time.Minute
}

// FirstMinute reports whether t falls in the first minute of its parent
// timeframe bar, e.g. minute 0 and 30 for M30, minute 0 of hours 0/4/8...
// for H4.
func (tf Timeframe) FirstMinute(t time.Time) bool {
	m := tf.Minutes()
	if m == 0 {
		return false
	}
	return (t.Hour()*60+t.Minute())%m == 0
}

// Truncate aligns t down to the open of its parent timeframe bar.
func (tf Timeframe) Truncate(t time.Time) time.Time {
	m := tf.Minutes()
	if m == 0 {
		return t
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	mins := (t.Hour()*60 + t.Minute()) / m * m
	return day.Add(time.Duration(mins) * time.Minute)
}
