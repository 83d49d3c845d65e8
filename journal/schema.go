package journal

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	ticket TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	direction TEXT NOT NULL,
	lot REAL NOT NULL,
	entry_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	close_time DATETIME NOT NULL,
	profit REAL NOT NULL,
	result TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
`
