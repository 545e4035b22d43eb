package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVProvider reads canonical bar CSV rows:
//
//	time,open,high,low,close[,volume]
//
// where time is RFC3339 or "2006-01-02 15:04:05" (UTC assumed).
// A header row ("time,...") is allowed. Empty/short rows are skipped.
// Rows must already be in ascending time order.
type CSVProvider struct {
	Path string
}

func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{Path: path}
}

func (p *CSVProvider) Bars(ctx context.Context, sym Symbol, tf Timeframe, start, end time.Time) ([]Bar, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var bars []Bar
	sawFirst := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		b, ok, err := parseBarRow(row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if !start.IsZero() && b.Time.Before(start) {
			continue
		}
		if !end.IsZero() && b.Time.After(end) {
			continue
		}
		bars = append(bars, b)
	}
}

func parseBarRow(row []string) (Bar, bool, error) {
	// Need at least: time,open,high,low,close
	if len(row) < 5 {
		return Bar{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Bar{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse("2006-01-02 15:04:05", ts)
		if err2 != nil {
			return Bar{}, false, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2.UTC()
	}

	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad value %q: %w", row[i+1], err)
		}
		vals[i] = v
	}

	b := Bar{Time: t, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}
	if len(row) > 5 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64); err == nil {
			b.Volume = v
		}
	}
	return b, true, nil
}
