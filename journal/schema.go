package journal

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	side TEXT NOT NULL,
	pair TEXT NOT NULL,
	amount_in REAL NOT NULL,
	expected_out REAL NOT NULL,
	min_out REAL NOT NULL,
	tx_hash TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(time);
`
