package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Record(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, time, side, pair, amount_in, expected_out, min_out, tx_hash, status, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Time.UTC(), t.Side, t.Pair, t.AmountIn,
		t.ExpectedOut, t.MinOut, t.TxHash, t.Status, t.Reason,
	)
	return err
}

// Recent returns the most recent trades, newest first.
func (j *SQLiteJournal) Recent(limit int) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, time, side, pair, amount_in, expected_out, min_out, tx_hash, status, reason
		FROM trades ORDER BY time DESC, trade_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		var ts time.Time
		if err := rows.Scan(&t.ID, &ts, &t.Side, &t.Pair, &t.AmountIn,
			&t.ExpectedOut, &t.MinOut, &t.TxHash, &t.Status, &t.Reason); err != nil {
			return nil, err
		}
		t.Time = ts
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
