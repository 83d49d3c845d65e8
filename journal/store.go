// Package journal persists the trade ledger. The Store is the durable
// flat-file record of every trade, loaded once at startup and
// rewritten in full after every mutation; the SQLite journal mirrors
// closed trades for reporting queries.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/antigravity/trader/ledger"
)

// Store reads and writes the JSON trade history file. Reads and writes
// are never concurrent: the single control loop owns the store.
type Store struct {
	path string
}

// NewStore creates a store for path. The file does not have to exist
// yet; Load returns an empty ledger for a missing file.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the full record list. Records written by earlier versions
// may miss newer fields; ledger.Load defaults them.
func (s *Store) Load() ([]ledger.TradeRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read trade history: %w", err)
	}
	var recs []ledger.TradeRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse trade history: %w", err)
	}
	return recs, nil
}

// Save rewrites the whole record list atomically (write to a temp file
// in the same directory, then rename).
func (s *Store) Save(recs []ledger.TradeRecord) error {
	if recs == nil {
		recs = []ledger.TradeRecord{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trade history: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".trade_history_*")
	if err != nil {
		return fmt.Errorf("write trade history: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write trade history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write trade history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace trade history: %w", err)
	}
	return nil
}
