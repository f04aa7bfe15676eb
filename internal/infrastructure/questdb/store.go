package questdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
)

// BarStore persists finalized bars in the `bars` table.
type BarStore struct {
	pool *pgxpool.Pool
}

var _ market.BarStore = (*BarStore)(nil)

// NewBarStore returns a bar store backed by the given pool.
func NewBarStore(pool *pgxpool.Pool) *BarStore {
	return &BarStore{pool: pool}
}

// WriteBar appends one finalized bar.
func (s *BarStore) WriteBar(ctx context.Context, bar *market.Bar) error {
	if err := bar.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO bars (minute, open, high, low, close, is_dummy, contract_month)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		bar.Minute,
		bar.Open.InexactFloat64(),
		bar.High.InexactFloat64(),
		bar.Low.InexactFloat64(),
		bar.Close.InexactFloat64(),
		bar.Synthetic,
		bar.ContractMonth,
	)
	if err != nil {
		return fmt.Errorf("failed to store bar: %w", err)
	}
	return nil
}

// LastBarMinute returns the maximum persisted bar minute.
func (s *BarStore) LastBarMinute(ctx context.Context) (time.Time, bool, error) {
	query := `SELECT minute FROM bars ORDER BY minute DESC LIMIT 1`

	var minute time.Time
	err := s.pool.QueryRow(ctx, query).Scan(&minute)
	if err != nil {
		if err == pgx.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get last bar minute: %w", err)
	}
	return minute.In(time.Local).Truncate(time.Minute), true, nil
}

// PreviousSessionClose returns the close of the most recent persisted bar.
func (s *BarStore) PreviousSessionClose(ctx context.Context) (decimal.Decimal, bool, error) {
	query := `SELECT close FROM bars ORDER BY minute DESC LIMIT 1`

	var close float64
	err := s.pool.QueryRow(ctx, query).Scan(&close)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Decimal{}, false, nil
		}
		return decimal.Decimal{}, false, fmt.Errorf("failed to get previous close: %w", err)
	}
	return decimal.NewFromFloat(close), true, nil
}

// Close releases nothing; pool lifecycle belongs to the caller.
func (s *BarStore) Close() error {
	return nil
}

// TickLog persists raw ticks in the `ticks` table.
type TickLog struct {
	pool *pgxpool.Pool
}

var _ market.TickLog = (*TickLog)(nil)

// NewTickLog returns a tick log backed by the given pool.
func NewTickLog(pool *pgxpool.Pool) *TickLog {
	return &TickLog{pool: pool}
}

// AppendTick stores one tick.
func (l *TickLog) AppendTick(ctx context.Context, tick *market.Tick) error {
	query := `INSERT INTO ticks (timestamp, price, status) VALUES ($1, $2, $3)`

	_, err := l.pool.Exec(ctx, query,
		tick.Timestamp,
		tick.Price.InexactFloat64(),
		int(tick.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to store tick: %w", err)
	}
	return nil
}

// Close releases nothing; pool lifecycle belongs to the caller.
func (l *TickLog) Close() error {
	return nil
}
