package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/trader/ledger"
)

func TestStore_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s := NewStore(filepath.Join(t.TempDir(), "trade_history.json"))
	recs, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trade_history.json")
	s := NewStore(path)

	closed := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	in := []ledger.TradeRecord{
		{
			Ticket: "T1", Symbol: "XAUUSD", Strategy: "Trend", Direction: ledger.Buy,
			Lot: 0.02, EntryTime: closed.Add(-time.Hour), EntryPrice: 2650,
			StopLoss: 2644, TakeProfit: 2656,
			Status: ledger.StatusClosed, Profit: 1200, ExitPrice: 2656,
			CloseTime: &closed, Result: ledger.Win,
		},
		{
			Ticket: "T2", Symbol: "XAUUSD", Strategy: "Range", Direction: ledger.Sell,
			Lot: 0.02, EntryTime: closed, EntryPrice: 2655,
			Status: ledger.StatusOpen,
		},
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].Ticket, out[0].Ticket)
	assert.Equal(t, in[0].Profit, out[0].Profit)
	assert.True(t, in[0].CloseTime.Equal(*out[0].CloseTime))
	assert.Nil(t, out[1].CloseTime)
}

func TestStore_SaveRewritesInFull(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trade_history.json")
	s := NewStore(path)

	require.NoError(t, s.Save([]ledger.TradeRecord{
		{Ticket: "T1", Symbol: "XAUUSD", Direction: ledger.Buy},
		{Ticket: "T2", Symbol: "XAUUSD", Direction: ledger.Buy},
	}))
	require.NoError(t, s.Save([]ledger.TradeRecord{
		{Ticket: "T3", Symbol: "XAUUSD", Direction: ledger.Sell},
	}))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "T3", out[0].Ticket)
}

func TestStore_LegacyRecordsLoadable(t *testing.T) {
	t.Parallel()

	// Records written before the symbol and status fields existed.
	legacy := `[
	  {"ticket": "T1", "direction": "BUY", "entry_time": "2026-08-24T09:00:00Z",
	   "entry_price": 2650, "profit": -120, "close_time": "2026-08-24T10:00:00Z"},
	  {"ticket": "T2", "direction": "SELL", "entry_time": "2026-08-24T11:00:00Z",
	   "entry_price": 2655, "profit": 0, "close_time": null}
	]`
	path := filepath.Join(t.TempDir(), "trade_history.json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	recs, err := NewStore(path).Load()
	require.NoError(t, err)
	require.Len(t, recs, 2)

	led := ledger.New()
	led.Load(recs)
	loaded := led.Records()
	assert.Equal(t, "GOLD#", loaded[0].Symbol)
	assert.Equal(t, ledger.StatusClosed, loaded[0].Status)
	assert.Equal(t, ledger.Loss, loaded[0].Result)
	assert.Equal(t, ledger.StatusOpen, loaded[1].Status)
}

func TestStore_CorruptFileErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trade_history.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}
