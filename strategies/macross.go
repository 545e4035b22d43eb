package strategies

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rustyeddy/tradesim/backtest"
	"github.com/rustyeddy/tradesim/indicators"
	"github.com/rustyeddy/tradesim/sim"
)

// MACross signals a trade on every fast/slow EMA crossover of the base chart:
// long when the fast average crosses above the slow, short when it crosses
// below. Entry is the open of the bar after the signal bar; each trade is an
// independent hypothetical closed out by the bar replay.
type MACross struct {
	cfg maCrossConfig
}

type maCrossConfig struct {
	Fast      int
	Slow      int
	StopTicks int
	ProfTicks int
}

func (s *MACross) Name() string { return "ma-cross" }

func (s *MACross) ExtraFields() map[string]string {
	return map[string]string{
		"fast": strconv.Itoa(s.cfg.Fast),
		"slow": strconv.Itoa(s.cfg.Slow),
	}
}

func intParam(params map[string]string, key string, def int) (int, error) {
	raw, ok := params[key]
	if !ok || raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return n, nil
}

func (s *MACross) parseParams(params map[string]string) (maCrossConfig, error) {
	var cfg maCrossConfig
	var err error

	if cfg.Fast, err = intParam(params, "fast", 9); err != nil {
		return cfg, err
	}
	if cfg.Slow, err = intParam(params, "slow", 20); err != nil {
		return cfg, err
	}
	if cfg.StopTicks, err = intParam(params, "stop_ticks", 20); err != nil {
		return cfg, err
	}
	if cfg.ProfTicks, err = intParam(params, "prof_ticks", 40); err != nil {
		return cfg, err
	}

	if cfg.Fast <= 0 || cfg.Slow <= 0 {
		return cfg, fmt.Errorf("fast and slow periods must be positive")
	}
	if cfg.Fast >= cfg.Slow {
		return cfg, fmt.Errorf("fast period %d must be below slow period %d", cfg.Fast, cfg.Slow)
	}
	if cfg.StopTicks <= 0 || cfg.ProfTicks <= 0 {
		return cfg, fmt.Errorf("stop_ticks and prof_ticks must be positive")
	}
	return cfg, nil
}

func (s *MACross) ValidateParams(params map[string]string) error {
	_, err := s.parseParams(params)
	return err
}

func (s *MACross) Calculate(ctx context.Context, b *backtest.Backtest) error {
	cfg, err := s.parseParams(b.Params)
	if err != nil {
		return err
	}
	s.cfg = cfg

	if b.BaseChart == nil || len(b.BaseChart.Bars) == 0 {
		return fmt.Errorf("ma-cross: base chart is not loaded")
	}

	fast := indicators.NewEMA(cfg.Fast)
	slow := indicators.NewEMA(cfg.Slow)

	tsID := sim.DeriveTsID(s.Name(), b.Params)
	ts := sim.NewTradeSeries(s.Name(), tsID, b.BtID, b.StartDt, b.EndDt)

	var lastDiff float64
	var haveLast bool

	bars := b.BaseChart.Bars
	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return err
		}

		fast.Update(bar)
		slow.Update(bar)
		if !fast.Ready() || !slow.Ready() {
			continue
		}

		diff := fast.Value() - slow.Value()
		crossed := haveLast && (lastDiff < 0) != (diff < 0) && diff != 0
		lastDiff, haveLast = diff, true

		// Need the next bar for the entry fill.
		if !crossed || i+1 >= len(bars) {
			continue
		}
		next := bars[i+1]

		dir := sim.Long
		if diff < 0 {
			dir = sim.Short
		}

		// Fill lands one minute into the next bar, past the first-minute
		// window.
		t, err := sim.NewTrade(sim.TradeSpec{
			Name:       s.Name(),
			Symbol:     b.Symbol,
			Direction:  dir,
			EntryPrice: next.Open,
			OpenTime:   next.Time.Add(time.Minute),
			StopTicks:  cfg.StopTicks,
			ProfTicks:  cfg.ProfTicks,
			Timeframe:  b.Timeframe,
		})
		if err != nil {
			return fmt.Errorf("ma-cross: open at %s: %w", next.Time, err)
		}
		ts.AddTrade(t)
	}

	return b.UpdateTradeSeries(ctx, ts, false, nil)
}
