// Package ohlc turns a stream of (price, timestamp) pairs into one-minute
// OHLC bars and synthesizes filler bars for minutes no tick reached.
package ohlc

import (
	"time"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
	"github.com/shopspring/decimal"
)

// Builder is the minute-aggregation state machine. It is empty until the
// first tick, then holds exactly one in-progress bar which is replaced
// wholesale on each minute rollover. Builder owns no I/O and is not safe
// for concurrent use; the dispatcher serializes access.
type Builder struct {
	currentMinute time.Time
	bar           *market.Bar

	lastClose    decimal.Decimal
	hasLastClose bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Seed primes the last known close, used by ForceFinalize before any
// in-session tick has arrived. Typically the previous session's close.
func (b *Builder) Seed(close decimal.Decimal) {
	b.lastClose = close
	b.hasLastClose = true
}

// CurrentMinute reports the minute of the in-progress bar, or false when
// the builder is empty.
func (b *Builder) CurrentMinute() (time.Time, bool) {
	if b.bar == nil {
		return time.Time{}, false
	}
	return b.currentMinute, true
}

// Update folds one tick into the state machine. It returns the completed
// bar when the tick's minute rolls past the in-progress one, and nil
// otherwise. A tick whose minute is behind the in-progress bar only widens
// that bar's High/Low; Close and the minute cursor never move backward.
func (b *Builder) Update(price decimal.Decimal, ts time.Time, contractMonth string) *market.Bar {
	minute := ts.Truncate(time.Minute)

	b.lastClose = price
	b.hasLastClose = true

	if b.bar == nil {
		b.currentMinute = minute
		b.bar = newBar(minute, price, contractMonth)
		return nil
	}

	if minute.After(b.currentMinute) {
		completed := b.bar.Clone()
		b.currentMinute = minute
		b.bar = newBar(minute, price, contractMonth)
		return completed
	}

	if minute.Equal(b.currentMinute) {
		if price.GreaterThan(b.bar.High) {
			b.bar.High = price
		}
		if price.LessThan(b.bar.Low) {
			b.bar.Low = price
		}
		b.bar.Close = price
		return nil
	}

	// Late tick from an earlier minute: widen the range of the bar that has
	// not been emitted yet, nothing else.
	if price.GreaterThan(b.bar.High) {
		b.bar.High = price
	}
	if price.LessThan(b.bar.Low) {
		b.bar.Low = price
	}
	return nil
}

// ForceFinalize produces the bar for target even though no tick rolled the
// minute over. It returns the in-progress bar when its minute equals
// target (marked synthetic when forceDummy), a flat synthetic bar at the
// last known close when the builder has not reached target yet, and nil
// when the builder has already advanced past target or no price is known.
func (b *Builder) ForceFinalize(target time.Time, forceDummy bool) *market.Bar {
	minute := target.Truncate(time.Minute)

	if b.bar != nil {
		switch {
		case b.currentMinute.Equal(minute):
			out := b.bar.Clone()
			if forceDummy {
				out.Synthetic = true
			}
			return out
		case b.currentMinute.After(minute):
			return nil
		}
	}

	if !b.hasLastClose {
		return nil
	}
	return market.NewFlatBar(minute, b.lastClose, b.contractMonth())
}

// Peek returns a copy of the in-progress bar without mutating state. Used
// at shutdown to flush the final partial bar.
func (b *Builder) Peek() *market.Bar {
	if b.bar == nil {
		return nil
	}
	return b.bar.Clone()
}

func (b *Builder) contractMonth() string {
	if b.bar != nil {
		return b.bar.ContractMonth
	}
	return market.DummyContractMonth
}

func newBar(minute time.Time, price decimal.Decimal, contractMonth string) *market.Bar {
	return &market.Bar{
		Minute:        minute,
		Open:          price,
		High:          price,
		Low:           price,
		Close:         price,
		ContractMonth: contractMonth,
	}
}
