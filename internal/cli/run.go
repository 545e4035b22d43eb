package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradesim/backtest"
	"github.com/rustyeddy/tradesim/config"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/pkg/id"
	"github.com/rustyeddy/tradesim/strategies"
)

func newRunCmd(rc *RootConfig) *cobra.Command {
	var (
		stratName string
		barsPath  string
		barTF     string
		resume    bool
		firstMin  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest: resume stored trades, replay bars, aggregate, persist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rc)
			if err != nil {
				return err
			}

			sym, err := market.NormalizeSymbol(cfg.Backtest.Symbol)
			if err != nil {
				return err
			}
			start, end, err := cfg.Dates()
			if err != nil {
				return err
			}

			dbPath := rc.DBPath
			if dbPath == "" {
				dbPath = cfg.Journal.DBPath
			}
			j, err := journal.NewSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("open journal %s: %w", dbPath, err)
			}
			defer j.Close()

			strat, err := strategies.New(stratName)
			if err != nil {
				return err
			}

			b := backtest.New(cfg.Backtest.Name, cfg.Backtest.BtID, sym,
				market.Timeframe(cfg.Backtest.Timeframe), start, end, cfg.Backtest.Params)
			b.SetStrategy(strat)

			runID := id.New()
			log := rc.Log.With(zap.String("run_id", runID))

			if barsPath != "" {
				provider := market.NewCSVProvider(barsPath)
				if err := b.LoadCharts(cmd.Context(), provider, market.Timeframe(barTF)); err != nil {
					return err
				}
			}

			runner := &backtest.Runner{
				Backtest: b,
				Journal:  j,
				Account: backtest.AccountParams{
					Balance:       cfg.Account.Balance,
					DrawdownLimit: cfg.Account.DrawdownLimit,
					Contracts:     cfg.Account.Contracts,
					ContractValue: cfg.Account.ContractValue,
					ContractFee:   cfg.Account.ContractFee,
				},
				Options: backtest.RunnerOptions{
					IncludeFirstMin: firstMin,
					Resume:          resume,
				},
				Log: log,
			}

			res, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			backtest.PrintResult(os.Stdout, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&stratName, "strategy", "replay", "Strategy to run (replay, nop, ma-cross)")
	cmd.Flags().StringVar(&barsPath, "bars", "", "CSV file of replay bars (time,open,high,low,close[,volume])")
	cmd.Flags().StringVar(&barTF, "bar-timeframe", "1m", "Timeframe of the replay bars")
	cmd.Flags().BoolVar(&resume, "resume", true, "Resume series/trades persisted under the same bt_id")
	cmd.Flags().BoolVar(&firstMin, "include-first-min", false, "Keep first-minute-open trades in statistics")

	return cmd
}

func loadConfig(rc *RootConfig) (*config.Config, error) {
	if rc.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(rc.ConfigPath)
}
