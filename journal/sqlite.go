package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/antigravity/trader/ledger"
)

// SQLite mirrors closed trades into a queryable database. Open
// positions are not journaled; the JSON store owns the full ledger.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the journal database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// RecordClosed inserts (or replaces) a closed trade.
func (j *SQLite) RecordClosed(r ledger.TradeRecord) error {
	if r.Status != ledger.StatusClosed || r.CloseTime == nil {
		return fmt.Errorf("record closed: trade %s is not closed", r.Ticket)
	}
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO trades
		(ticket, symbol, strategy, direction, lot, entry_time, entry_price, exit_price, close_time, profit, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Ticket, r.Symbol, r.Strategy, string(r.Direction), r.Lot,
		r.EntryTime, r.EntryPrice, r.ExitPrice, *r.CloseTime, r.Profit, string(r.Result),
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
