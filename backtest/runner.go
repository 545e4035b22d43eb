package backtest

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/sim"
)

// AccountParams are the sizing inputs threaded through every balance and
// drawdown walk of a run.
type AccountParams struct {
	Balance       float64
	DrawdownLimit float64
	Contracts     int
	ContractValue float64
	ContractFee   float64
}

// RunnerOptions controls the generic runner.
type RunnerOptions struct {
	// IncludeFirstMin keeps trades opened in the first minute of their
	// parent bar in every statistic.
	IncludeFirstMin bool
	// Resume attempts ConfigFromStorage before calculating.
	Resume bool
}

// Runner drives one backtest end to end: optional resume, strategy
// calculation, bar-by-bar replay of open trades, aggregation, persistence.
type Runner struct {
	Backtest *Backtest
	Journal  journal.Journal
	Account  AccountParams
	Options  RunnerOptions
	Log      *zap.Logger
}

// Result is a lightweight summary of a run.
type Result struct {
	BtID    string
	Resumed bool

	Start time.Time
	End   time.Time

	Series int
	Trades int
	Wins   int
	Losses int

	StartBalance float64
	EndBalance   float64
	BalanceHigh  float64
	BalanceLow   float64

	DrawdownClose float64
	Liquidated    bool
}

// Run executes the backtest loop:
//  1. optionally resume from storage
//  2. strategy Calculate
//  3. replay bar-chart candles through every still-open trade
//  4. chain balances across each series
//  5. persist everything
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Backtest == nil {
		return Result{}, fmt.Errorf("runner: Backtest is required")
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	b := r.Backtest
	b.SetLogger(log)

	res := Result{BtID: b.BtID, StartBalance: r.Account.Balance}

	if r.Options.Resume && r.Journal != nil {
		resumed, err := b.ConfigFromStorage(ctx, r.Journal)
		if err != nil {
			return res, fmt.Errorf("resume %s: %w", b.BtID, err)
		}
		res.Resumed = resumed
	}

	if err := b.Calculate(ctx); err != nil {
		return res, err
	}

	for _, ts := range b.Series {
		ts.SortTrades()
		if err := r.replaySeries(ts); err != nil {
			return res, err
		}
	}

	res.Start = b.StartDt
	res.End = b.EndDt
	res.Series = len(b.Series)

	running := r.Account.Balance
	drawdown := r.Account.DrawdownLimit
	for _, ts := range b.Series {
		st := ts.Stats(r.Options.IncludeFirstMin)
		res.Trades += st.Trades
		res.Wins += st.Wins
		res.Losses += st.Losses

		sb := ts.BalanceImpact(running, r.Account.Contracts, r.Account.ContractValue,
			r.Account.ContractFee, r.Options.IncludeFirstMin)
		running = sb.Close
		if res.BalanceHigh == 0 || sb.High > res.BalanceHigh {
			res.BalanceHigh = sb.High
		}
		if res.BalanceLow == 0 || sb.Low < res.BalanceLow {
			res.BalanceLow = sb.Low
		}
		sd := ts.DrawdownImpact(drawdown, r.Account.DrawdownLimit, r.Account.Contracts,
			r.Account.ContractValue, r.Account.ContractFee, r.Options.IncludeFirstMin)
		drawdown = sd.Close
		if sb.Liquidated || sd.Liquidated {
			res.Liquidated = true
		}

		log.Info("series aggregated",
			zap.String("ts_id", ts.TsID),
			zap.Int("trades", st.Trades),
			zap.Float64("win_rate", st.WinRate),
			zap.Float64("balance_close", sb.Close))
	}
	res.EndBalance = running
	res.DrawdownClose = drawdown

	if r.Journal != nil {
		if err := b.Store(ctx, r.Journal); err != nil {
			return res, err
		}
	}

	log.Info("backtest complete",
		zap.String("bt_id", b.BtID),
		zap.Int("trades", res.Trades),
		zap.Float64("end_balance", res.EndBalance),
		zap.Bool("liquidated", res.Liquidated))

	return res, nil
}

// replaySeries feeds bar-chart candles through every open trade of the
// series, starting at each trade's open time, until the trade closes or the
// chart runs out.
func (r *Runner) replaySeries(ts *sim.TradeSeries) error {
	if r.Backtest.BarChart == nil {
		return nil
	}
	for _, t := range ts.Trades {
		if !t.IsOpen {
			continue
		}
		for _, bar := range r.Backtest.BarChart.From(t.OpenTime) {
			closed, err := t.CandleUpdate(bar)
			if err != nil {
				return fmt.Errorf("replay %s/%s: %w", ts.TsID, t.Name, err)
			}
			if closed {
				break
			}
		}
	}
	return nil
}

// PrintResult writes a plain-text run summary.
func PrintResult(w io.Writer, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Backtest:      %s\n", r.BtID)
	if r.Resumed {
		fmt.Fprintln(w, "Resumed:       yes")
	}
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Series:        %d\n", r.Series)
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.StartBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.EndBalance)
	fmt.Fprintf(w, "Balance High:  %.2f\n", r.BalanceHigh)
	fmt.Fprintf(w, "Balance Low:   %.2f\n", r.BalanceLow)
	fmt.Fprintf(w, "Drawdown:      %.2f\n", r.DrawdownClose)
	if r.Liquidated {
		fmt.Fprintln(w, "Liquidated:    yes")
	}

	fmt.Fprintln(w)
}
