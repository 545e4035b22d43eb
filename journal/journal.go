// journal/journal.go
package journal

import (
	"context"
	"time"

	"github.com/rustyeddy/tradesim/sim"
)

// TradeKey identifies one persisted trade: symbol + open time + owning
// series.
type TradeKey struct {
	Symbol   string
	OpenTime time.Time
	TsID     string
}

// BacktestRecord mirrors the backtests table. Params is the strategy
// parameter map serialized as JSON.
type BacktestRecord struct {
	BtID    string `json:"bt_id"`
	Name    string `json:"name"`
	Params  []byte `json:"params"`
	StartDt string `json:"start_dt"`
	EndDt   string `json:"end_dt"`
	State   string `json:"state"`
}

// Journal is the persistence collaborator for the simulation core. Calls are
// the engine's only suspension points; retry policy lives behind this
// interface, never in the core.
type Journal interface {
	StoreTrade(ctx context.Context, r sim.TradeRecord) error
	GetTrade(ctx context.Context, key TradeKey) (sim.TradeRecord, error)
	DeleteTrade(ctx context.Context, key TradeKey) error
	ListTradesByTsID(ctx context.Context, tsID string) ([]sim.TradeRecord, error)
	ListTradesByBtID(ctx context.Context, btID string) ([]sim.TradeRecord, error)
	DeleteTradesByTsID(ctx context.Context, tsID string) error

	StoreSeries(ctx context.Context, r sim.SeriesRecord) error
	GetSeries(ctx context.Context, tsID string) (sim.SeriesRecord, error)
	ListSeriesByBtID(ctx context.Context, btID string) ([]sim.SeriesRecord, error)
	DeleteSeries(ctx context.Context, tsID string) error

	StoreBacktest(ctx context.Context, r BacktestRecord) error
	GetBacktest(ctx context.Context, btID string) (BacktestRecord, error)
	DeleteBacktest(ctx context.Context, btID string) error

	Close() error
}
