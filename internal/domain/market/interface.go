package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BarStore is the append-only sink for finalized one-minute bars.
//
//go:generate mockgen -source=interface.go -destination=mock/store_mock.go -package=mock
type BarStore interface {
	// WriteBar appends one finalized bar. Implementations must not reorder
	// or rewrite rows; callers enforce the watermark discipline.
	WriteBar(ctx context.Context, bar *Bar) error

	// LastBarMinute reports the maximum persisted bar minute across all
	// trading-day files, or false when nothing has been persisted yet.
	LastBarMinute(ctx context.Context) (time.Time, bool, error)

	// PreviousSessionClose reports the close of the most recently persisted
	// bar, used as the gap filler's base price before any in-session tick.
	PreviousSessionClose(ctx context.Context) (decimal.Decimal, bool, error)

	Close() error
}

// TickLog is the append-only log of raw ticks as received.
type TickLog interface {
	AppendTick(ctx context.Context, tick *Tick) error
	Close() error
}
