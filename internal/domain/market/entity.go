package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceStatus is the exchange-reported state of the current price.
type PriceStatus int

const (
	// StatusNormal indicates a regular traded price.
	StatusNormal PriceStatus = 1
	// StatusCircuitBreak indicates the exchange has halted price dissemination.
	StatusCircuitBreak PriceStatus = 12
)

// DummyContractMonth marks bars that were not derived from a live tick and
// therefore carry no contract identity.
const DummyContractMonth = "dummy"

// Tick represents a single price update received from the feed.
// Ticks are not assumed ordered or unique; the same timestamp may repeat.
type Tick struct {
	Price     decimal.Decimal
	Timestamp time.Time
	Status    PriceStatus
}

// Bar represents a finalized one-minute OHLC aggregate. Minute is the bar's
// identity within a trading day; the persisted series holds at most one bar
// per minute, in strictly increasing minute order.
type Bar struct {
	Minute        time.Time
	Open          decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	Close         decimal.Decimal
	Synthetic     bool
	ContractMonth string
}

// NewFlatBar returns a synthetic bar whose four prices all equal price.
func NewFlatBar(minute time.Time, price decimal.Decimal, contractMonth string) *Bar {
	return &Bar{
		Minute:        minute.Truncate(time.Minute),
		Open:          price,
		High:          price,
		Low:           price,
		Close:         price,
		Synthetic:     true,
		ContractMonth: contractMonth,
	}
}

// Clone returns a copy of the bar.
func (b *Bar) Clone() *Bar {
	cp := *b
	return &cp
}

// Validate checks the OHLC ordering invariant.
func (b *Bar) Validate() error {
	if b.Low.GreaterThan(b.Open) || b.Low.GreaterThan(b.Close) {
		return fmt.Errorf("bar %s: low %s above open/close", b.Minute.Format("2006/01/02 15:04"), b.Low)
	}
	if b.High.LessThan(b.Open) || b.High.LessThan(b.Close) {
		return fmt.Errorf("bar %s: high %s below open/close", b.Minute.Format("2006/01/02 15:04"), b.High)
	}
	return nil
}
