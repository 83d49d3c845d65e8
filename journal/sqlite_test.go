package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/trader/ledger"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	j, err := OpenSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func closedTrade(ticket, symbol, strat string, dir ledger.Direction, profit float64, closedAt time.Time) ledger.TradeRecord {
	return ledger.TradeRecord{
		Ticket: ticket, Symbol: symbol, Strategy: strat, Direction: dir,
		Lot: 0.02, EntryTime: closedAt.Add(-time.Hour), EntryPrice: 2650,
		Status: ledger.StatusClosed, Profit: profit, ExitPrice: 2650 + profit/200,
		CloseTime: &closedAt, Result: ledger.ResultOf(profit),
	}
}

func TestSQLite_RecordClosed(t *testing.T) {
	t.Parallel()

	j := openTestDB(t)
	at := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordClosed(closedTrade("T1", "XAUUSD", "Trend", ledger.Buy, 1200, at)))

	// Re-recording the same ticket replaces, not duplicates.
	require.NoError(t, j.RecordClosed(closedTrade("T1", "XAUUSD", "Trend", ledger.Buy, 1100, at)))

	recs, err := j.ListClosedBetween(at.Add(-time.Minute), at.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1100.0, recs[0].Profit)
	assert.Equal(t, ledger.Buy, recs[0].Direction)
}

func TestSQLite_RejectsOpenTrade(t *testing.T) {
	t.Parallel()

	j := openTestDB(t)
	err := j.RecordClosed(ledger.TradeRecord{Ticket: "T1", Status: ledger.StatusOpen})
	assert.Error(t, err)
}

func TestSQLite_ListClosedBetween(t *testing.T) {
	t.Parallel()

	j := openTestDB(t)
	base := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordClosed(closedTrade("T1", "XAUUSD", "Trend", ledger.Buy, 100, base.Add(10*time.Hour))))
	require.NoError(t, j.RecordClosed(closedTrade("T2", "XAUUSD", "Range", ledger.Sell, -50, base.Add(14*time.Hour))))
	require.NoError(t, j.RecordClosed(closedTrade("T3", "XAUUSD", "Trend", ledger.Buy, 80, base.Add(30*time.Hour))))

	recs, err := j.ListClosedBetween(base, base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "T1", recs[0].Ticket)
	assert.Equal(t, "T2", recs[1].Ticket)
}

func TestSQLite_DailyPnL(t *testing.T) {
	t.Parallel()

	j := openTestDB(t)
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordClosed(closedTrade("T1", "XAUUSD", "Trend", ledger.Buy, 100, day.Add(10*time.Hour))))
	require.NoError(t, j.RecordClosed(closedTrade("T2", "USDJPY", "Range", ledger.Sell, -40, day.Add(12*time.Hour))))
	require.NoError(t, j.RecordClosed(closedTrade("T3", "XAUUSD", "Trend", ledger.Buy, 999, day.AddDate(0, 0, 1))))

	pnl, err := j.DailyPnL(day.Add(15 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 100.0, pnl["XAUUSD"])
	assert.Equal(t, -40.0, pnl["USDJPY"])
	assert.NotContains(t, pnl, "T3")
}

func TestSQLite_WinRates(t *testing.T) {
	t.Parallel()

	j := openTestDB(t)
	at := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordClosed(closedTrade("T1", "XAUUSD", "Trend", ledger.Buy, 100, at)))
	require.NoError(t, j.RecordClosed(closedTrade("T2", "XAUUSD", "Trend", ledger.Buy, -60, at.Add(time.Hour))))
	require.NoError(t, j.RecordClosed(closedTrade("T3", "XAUUSD", "Range", ledger.Sell, 30, at.Add(2*time.Hour))))

	stats, err := j.WinRates()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total.Wins)
	assert.Equal(t, 1, stats.Total.Losses)
	assert.Equal(t, 2, stats.ByStrategy["Trend"].Trades())
	assert.InDelta(t, 70, stats.BySymbol["XAUUSD"].Profit, 1e-9)
}
