// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	symbol TEXT NOT NULL,
	open_time TEXT NOT NULL,
	ts_id TEXT NOT NULL,
	bt_id TEXT NOT NULL,
	name TEXT NOT NULL,
	version TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_price REAL NOT NULL,
	stop_ticks INTEGER NOT NULL,
	stop_target REAL NOT NULL,
	prof_ticks INTEGER NOT NULL,
	prof_target REAL NOT NULL,
	offset_ticks INTEGER NOT NULL,
	timeframe TEXT NOT NULL,
	trading_hours TEXT NOT NULL,
	first_min_open INTEGER NOT NULL,
	high_price REAL NOT NULL,
	low_price REAL NOT NULL,
	is_open INTEGER NOT NULL,
	close_dt TEXT NOT NULL,
	exit_price REAL NOT NULL,
	profitable INTEGER NOT NULL,
	PRIMARY KEY (symbol, open_time, ts_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts_id);
CREATE INDEX IF NOT EXISTS idx_trades_bt ON trades(bt_id);

CREATE TABLE IF NOT EXISTS series (
	ts_id TEXT PRIMARY KEY,
	bt_id TEXT NOT NULL,
	name TEXT NOT NULL,
	start_dt TEXT NOT NULL,
	end_dt TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_series_bt ON series(bt_id);

CREATE TABLE IF NOT EXISTS backtests (
	bt_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	params TEXT NOT NULL,
	start_dt TEXT NOT NULL,
	end_dt TEXT NOT NULL,
	state TEXT NOT NULL
);
`
