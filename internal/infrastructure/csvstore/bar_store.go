// Package csvstore persists bars and ticks as per-trading-day CSV files,
// the format consumed by the downstream analysis tooling.
package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/session"
	"github.com/shopspring/decimal"
)

const (
	barFileSuffix = "_nikkei_mini_future.csv"
	timeLayout    = "2006/01/02 15:04:05"
)

var barHeader = []string{"Time", "Open", "High", "Low", "Close", "IsDummy", "ContractMonth"}

// BarStore appends finalized bars to one CSV file per trading day,
// switching files when the bar's trade date changes.
type BarStore struct {
	baseDir string

	tradeDate time.Time
	file      *os.File
	writer    *csv.Writer
}

var _ market.BarStore = (*BarStore)(nil)

// NewBarStore creates the base directory if needed and returns a store.
func NewBarStore(baseDir string) (*BarStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bar directory: %w", err)
	}
	return &BarStore{baseDir: baseDir}, nil
}

// WriteBar appends one row. The row is flushed to the OS before returning
// so the watermark never runs ahead of what is on disk.
func (s *BarStore) WriteBar(_ context.Context, bar *market.Bar) error {
	if err := bar.Validate(); err != nil {
		return err
	}

	td := session.TradeDate(bar.Minute)
	if s.file == nil || !td.Equal(s.tradeDate) {
		if err := s.rotate(td); err != nil {
			return err
		}
	}

	row := []string{
		bar.Minute.Format(timeLayout),
		bar.Open.String(),
		bar.High.String(),
		bar.Low.String(),
		bar.Close.String(),
		boolString(bar.Synthetic),
		bar.ContractMonth,
	}
	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write bar row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush bar row: %w", err)
	}
	return nil
}

// LastBarMinute scans the persisted bar files for the maximum bar minute.
func (s *BarStore) LastBarMinute(_ context.Context) (time.Time, bool, error) {
	row, ok, err := lastBarRow(s.baseDir)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ts, err := time.ParseInLocation(timeLayout, row[0], time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse bar time %q: %w", row[0], err)
	}
	return ts.Truncate(time.Minute), true, nil
}

// PreviousSessionClose returns the close of the most recently persisted bar.
func (s *BarStore) PreviousSessionClose(_ context.Context) (decimal.Decimal, bool, error) {
	row, ok, err := lastBarRow(s.baseDir)
	if err != nil || !ok {
		return decimal.Decimal{}, false, err
	}
	close, err := decimal.NewFromString(row[4])
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("failed to parse close %q: %w", row[4], err)
	}
	return close, true, nil
}

// Close closes the current trading-day file.
func (s *BarStore) Close() error {
	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	err := s.file.Close()
	s.file = nil
	s.writer = nil
	return err
}

func (s *BarStore) rotate(tradeDate time.Time) error {
	if s.file != nil {
		s.writer.Flush()
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("failed to close bar file: %w", err)
		}
	}

	path := filepath.Join(s.baseDir, tradeDate.Format("20060102")+barFileSuffix)
	file, fresh, err := openAppend(path)
	if err != nil {
		return fmt.Errorf("failed to open bar file: %w", err)
	}

	s.file = file
	s.writer = csv.NewWriter(file)
	s.tradeDate = tradeDate

	if fresh {
		if err := s.writer.Write(barHeader); err != nil {
			return fmt.Errorf("failed to write bar header: %w", err)
		}
		s.writer.Flush()
	}
	return s.writer.Error()
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
