package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrade(id string) TradeRecord {
	return TradeRecord{
		ID:          id,
		Time:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Side:        "buy",
		Pair:        "CRO/USDC",
		AmountIn:    100,
		ExpectedOut: 1176.4,
		MinOut:      1152.8,
		TxHash:      "0xdeadbeef",
		Status:      StatusSuccess,
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	defer j.Close()

	first := sampleTrade("01A")
	second := sampleTrade("01B")
	second.Time = first.Time.Add(time.Minute)
	second.Side = "sell"
	second.Status = StatusFailed
	second.Reason = "swap reverted"

	require.NoError(t, j.Record(first))
	require.NoError(t, j.Record(second))

	recent, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first.
	assert.Equal(t, "01B", recent[0].ID)
	assert.Equal(t, "sell", recent[0].Side)
	assert.Equal(t, "swap reverted", recent[0].Reason)
	assert.Equal(t, "01A", recent[1].ID)
	assert.InDelta(t, 1176.4, recent[1].ExpectedOut, 1e-9)
}

func TestCSVAppendsWithHeaderOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(sampleTrade("01A")))
	require.NoError(t, j.Close())

	// Reopen and append; header must not repeat.
	j, err = NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(sampleTrade("01B")))
	require.NoError(t, j.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "trade_id", rows[0][0])
	assert.Equal(t, "01A", rows[1][0])
	assert.Equal(t, "01B", rows[2][0])
}

func TestNopJournal(t *testing.T) {
	t.Parallel()

	var j Journal = Nop{}
	assert.NoError(t, j.Record(sampleTrade("01A")))
	assert.NoError(t, j.Close())
}
