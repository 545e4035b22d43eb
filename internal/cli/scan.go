package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradesim/journal"
)

func newScanCmd(rc *RootConfig) *cobra.Command {
	var btID string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a read-only integrity scan over the trades of one backtest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rc)
			if err != nil {
				return err
			}
			dbPath := rc.DBPath
			if dbPath == "" {
				dbPath = cfg.Journal.DBPath
			}
			if btID == "" {
				btID = cfg.Backtest.BtID
				if btID == "" {
					btID = cfg.Backtest.Name
				}
			}

			j, err := journal.NewSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("open journal %s: %w", dbPath, err)
			}
			defer j.Close()

			report, err := j.ScanTrades(cmd.Context(), btID)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "scanned %d trades of %s\n", report.Checked, report.BtID)
			if report.Clean() {
				fmt.Fprintln(os.Stdout, "no issues found")
				return nil
			}
			for _, issue := range report.Issues {
				fmt.Fprintf(os.Stdout, "%-16s %s %s %s: %s\n",
					issue.Kind, issue.TsID, issue.Symbol, issue.OpenTime, issue.Detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&btID, "bt", "", "Backtest identity to scan (defaults to config name)")

	return cmd
}
