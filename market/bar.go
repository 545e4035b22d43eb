package market

import "time"

// Bar represents one OHLCV price observation for a fixed time interval.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
