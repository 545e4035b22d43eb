package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradesim/market"
)

// Config represents the complete simulation configuration
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig contains the sizing and risk parameters threaded through
// every balance/drawdown walk.
type AccountConfig struct {
	Balance       float64 `json:"balance" yaml:"balance"`
	DrawdownLimit float64 `json:"drawdown_limit" yaml:"drawdown_limit"`
	Contracts     int     `json:"contracts" yaml:"contracts"`
	ContractValue float64 `json:"contract_value" yaml:"contract_value"`
	ContractFee   float64 `json:"contract_fee" yaml:"contract_fee"`
}

// BacktestConfig identifies and parameterizes one strategy run.
type BacktestConfig struct {
	Name      string            `json:"name" yaml:"name"`
	BtID      string            `json:"bt_id,omitempty" yaml:"bt_id,omitempty"`
	Symbol    string            `json:"symbol" yaml:"symbol"`
	Timeframe string            `json:"timeframe" yaml:"timeframe"`
	Start     string            `json:"start" yaml:"start"` // 2006-01-02
	End       string            `json:"end" yaml:"end"`
	Params    map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// JournalConfig contains persistence parameters.
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (format chosen by extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Dates returns the parsed backtest range.
func (c *Config) Dates() (start, end time.Time, err error) {
	start, err = time.Parse(time.DateOnly, c.Backtest.Start)
	if err != nil {
		return start, end, fmt.Errorf("bad backtest.start %q: %w", c.Backtest.Start, err)
	}
	end, err = time.Parse(time.DateOnly, c.Backtest.End)
	if err != nil {
		return start, end, fmt.Errorf("bad backtest.end %q: %w", c.Backtest.End, err)
	}
	return start, end, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Account.DrawdownLimit <= 0 {
		return fmt.Errorf("account.drawdown_limit must be positive")
	}
	if c.Account.Contracts <= 0 {
		return fmt.Errorf("account.contracts must be positive")
	}
	if c.Account.ContractValue <= 0 {
		return fmt.Errorf("account.contract_value must be positive")
	}
	if c.Account.ContractFee < 0 {
		return fmt.Errorf("account.contract_fee must be non-negative")
	}
	if c.Backtest.Name == "" {
		return fmt.Errorf("backtest.name is required")
	}
	if _, err := market.NormalizeSymbol(c.Backtest.Symbol); err != nil {
		return fmt.Errorf("backtest.symbol: %v", err)
	}
	if !market.Timeframe(c.Backtest.Timeframe).Valid() {
		return fmt.Errorf("backtest.timeframe %q is not valid", c.Backtest.Timeframe)
	}
	start, end, err := c.Dates()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("backtest.end is before backtest.start")
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Balance:       50000,
			DrawdownLimit: 2500,
			Contracts:     1,
			ContractValue: 50,
			ContractFee:   4.50,
		},
		Backtest: BacktestConfig{
			Name:      "ma-cross",
			Symbol:    "ES",
			Timeframe: "30m",
			Start:     "2024-01-01",
			End:       "2024-03-31",
		},
		Journal: JournalConfig{
			DBPath: "./tradesim.sqlite",
		},
	}
}
