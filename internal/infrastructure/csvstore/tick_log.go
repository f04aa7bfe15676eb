package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
)

const tickFileSuffix = "_tick.csv"

var tickHeader = []string{"Time", "Price", "CurrentPriceStatus"}

// TickLog appends every received tick to one CSV file per calendar day.
type TickLog struct {
	baseDir string

	date   time.Time
	file   *os.File
	writer *csv.Writer
}

var _ market.TickLog = (*TickLog)(nil)

// NewTickLog creates the base directory if needed and returns a log.
func NewTickLog(baseDir string) (*TickLog, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tick directory: %w", err)
	}
	return &TickLog{baseDir: baseDir}, nil
}

// AppendTick writes one row, switching files when the date changes.
func (l *TickLog) AppendTick(_ context.Context, tick *market.Tick) error {
	day := time.Date(tick.Timestamp.Year(), tick.Timestamp.Month(), tick.Timestamp.Day(), 0, 0, 0, 0, tick.Timestamp.Location())
	if l.file == nil || !day.Equal(l.date) {
		if err := l.rotate(day); err != nil {
			return err
		}
	}

	row := []string{
		tick.Timestamp.Format(timeLayout),
		tick.Price.String(),
		strconv.Itoa(int(tick.Status)),
	}
	if err := l.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write tick row: %w", err)
	}
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush tick row: %w", err)
	}
	return nil
}

// Close closes the current day's file.
func (l *TickLog) Close() error {
	if l.file == nil {
		return nil
	}
	l.writer.Flush()
	err := l.file.Close()
	l.file = nil
	l.writer = nil
	return err
}

func (l *TickLog) rotate(day time.Time) error {
	if l.file != nil {
		l.writer.Flush()
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("failed to close tick file: %w", err)
		}
	}

	path := filepath.Join(l.baseDir, day.Format("20060102")+tickFileSuffix)
	file, fresh, err := openAppend(path)
	if err != nil {
		return fmt.Errorf("failed to open tick file: %w", err)
	}

	l.file = file
	l.writer = csv.NewWriter(file)
	l.date = day

	if fresh {
		if err := l.writer.Write(tickHeader); err != nil {
			return fmt.Errorf("failed to write tick header: %w", err)
		}
		l.writer.Flush()
	}
	return l.writer.Error()
}
