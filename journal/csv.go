package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSVJournal appends trades to a flat file. Simpler to eyeball than SQLite;
// no query support.
type CSVJournal struct {
	file   *os.File
	writer *csv.Writer
}

func NewCSV(path string) (*CSVJournal, error) {
	_, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open trades csv: %w", err)
	}

	j := &CSVJournal{file: file, writer: csv.NewWriter(file)}
	if newFile {
		header := []string{"trade_id", "time", "side", "pair", "amount_in",
			"expected_out", "min_out", "tx_hash", "status", "reason"}
		if err := j.writer.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		j.writer.Flush()
	}
	return j, nil
}

func (j *CSVJournal) Record(t TradeRecord) error {
	row := []string{
		t.ID,
		t.Time.UTC().Format(time.RFC3339),
		t.Side,
		t.Pair,
		strconv.FormatFloat(t.AmountIn, 'f', -1, 64),
		strconv.FormatFloat(t.ExpectedOut, 'f', -1, 64),
		strconv.FormatFloat(t.MinOut, 'f', -1, 64),
		t.TxHash,
		t.Status,
		t.Reason,
	}
	if err := j.writer.Write(row); err != nil {
		return err
	}
	j.writer.Flush()
	return j.writer.Error()
}

func (j *CSVJournal) Close() error {
	j.writer.Flush()
	if err := j.writer.Error(); err != nil {
		j.file.Close()
		return err
	}
	return j.file.Close()
}
