package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/tradesim/sim"
)

// SQLite is the default Journal backing store.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

const tradeCols = `symbol, open_time, ts_id, bt_id, name, version, direction, entry_price,
	stop_ticks, stop_target, prof_ticks, prof_target, offset_ticks,
	timeframe, trading_hours, first_min_open,
	high_price, low_price, is_open, close_dt, exit_price, profitable`

func (j *SQLite) StoreTrade(ctx context.Context, r sim.TradeRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO trades (`+tradeCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Symbol, r.OpenTime, r.TsID, r.BtID, r.Name, r.Version, r.Direction, r.EntryPrice,
		r.StopTicks, r.StopTarget, r.ProfTicks, r.ProfTarget, r.OffsetTicks,
		r.Timeframe, r.TradingHours, r.FirstMinOpen,
		r.HighPrice, r.LowPrice, r.IsOpen, r.CloseDt, r.ExitPrice, r.Profitable,
	)
	return err
}

func scanTrade(row interface{ Scan(...any) error }) (sim.TradeRecord, error) {
	var r sim.TradeRecord
	err := row.Scan(
		&r.Symbol, &r.OpenTime, &r.TsID, &r.BtID, &r.Name, &r.Version, &r.Direction, &r.EntryPrice,
		&r.StopTicks, &r.StopTarget, &r.ProfTicks, &r.ProfTarget, &r.OffsetTicks,
		&r.Timeframe, &r.TradingHours, &r.FirstMinOpen,
		&r.HighPrice, &r.LowPrice, &r.IsOpen, &r.CloseDt, &r.ExitPrice, &r.Profitable,
	)
	return r, err
}

func (j *SQLite) GetTrade(ctx context.Context, key TradeKey) (sim.TradeRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+tradeCols+` FROM trades
		WHERE symbol = ? AND open_time = ? AND ts_id = ?`,
		key.Symbol, key.OpenTime.UTC().Format(sim.TimeLayout), key.TsID)

	r, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return sim.TradeRecord{}, fmt.Errorf("trade %s/%s/%s not found",
			key.Symbol, key.OpenTime.UTC().Format(sim.TimeLayout), key.TsID)
	}
	return r, err
}

func (j *SQLite) DeleteTrade(ctx context.Context, key TradeKey) error {
	_, err := j.db.ExecContext(ctx, `
		DELETE FROM trades WHERE symbol = ? AND open_time = ? AND ts_id = ?`,
		key.Symbol, key.OpenTime.UTC().Format(sim.TimeLayout), key.TsID)
	return err
}

func (j *SQLite) listTrades(ctx context.Context, field, value string) ([]sim.TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+tradeCols+` FROM trades
		WHERE `+field+` = ?
		ORDER BY open_time ASC, symbol ASC`, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.TradeRecord
	for rows.Next() {
		r, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *SQLite) ListTradesByTsID(ctx context.Context, tsID string) ([]sim.TradeRecord, error) {
	return j.listTrades(ctx, "ts_id", tsID)
}

func (j *SQLite) ListTradesByBtID(ctx context.Context, btID string) ([]sim.TradeRecord, error) {
	return j.listTrades(ctx, "bt_id", btID)
}

func (j *SQLite) DeleteTradesByTsID(ctx context.Context, tsID string) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM trades WHERE ts_id = ?`, tsID)
	return err
}

func (j *SQLite) StoreSeries(ctx context.Context, r sim.SeriesRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO series (ts_id, bt_id, name, start_dt, end_dt)
		VALUES (?, ?, ?, ?, ?)`,
		r.TsID, r.BtID, r.Name, r.StartDt, r.EndDt)
	return err
}

func (j *SQLite) GetSeries(ctx context.Context, tsID string) (sim.SeriesRecord, error) {
	var r sim.SeriesRecord
	err := j.db.QueryRowContext(ctx, `
		SELECT ts_id, bt_id, name, start_dt, end_dt FROM series WHERE ts_id = ?`, tsID).
		Scan(&r.TsID, &r.BtID, &r.Name, &r.StartDt, &r.EndDt)
	if err == sql.ErrNoRows {
		return sim.SeriesRecord{}, fmt.Errorf("series %q not found", tsID)
	}
	return r, err
}

func (j *SQLite) ListSeriesByBtID(ctx context.Context, btID string) ([]sim.SeriesRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT ts_id, bt_id, name, start_dt, end_dt FROM series
		WHERE bt_id = ? ORDER BY ts_id ASC`, btID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.SeriesRecord
	for rows.Next() {
		var r sim.SeriesRecord
		if err := rows.Scan(&r.TsID, &r.BtID, &r.Name, &r.StartDt, &r.EndDt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *SQLite) DeleteSeries(ctx context.Context, tsID string) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM series WHERE ts_id = ?`, tsID)
	return err
}

func (j *SQLite) StoreBacktest(ctx context.Context, r BacktestRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO backtests (bt_id, name, params, start_dt, end_dt, state)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.BtID, r.Name, string(r.Params), r.StartDt, r.EndDt, r.State)
	return err
}

func (j *SQLite) GetBacktest(ctx context.Context, btID string) (BacktestRecord, error) {
	var r BacktestRecord
	var params string
	err := j.db.QueryRowContext(ctx, `
		SELECT bt_id, name, params, start_dt, end_dt, state FROM backtests WHERE bt_id = ?`, btID).
		Scan(&r.BtID, &r.Name, &params, &r.StartDt, &r.EndDt, &r.State)
	if err == sql.ErrNoRows {
		return BacktestRecord{}, fmt.Errorf("backtest %q not found", btID)
	}
	r.Params = []byte(params)
	return r, err
}

func (j *SQLite) DeleteBacktest(ctx context.Context, btID string) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM backtests WHERE bt_id = ?`, btID)
	return err
}
