package ohlc

import (
	"time"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/session"
	"github.com/shopspring/decimal"
)

// FillMissing walks minute by minute from last+1m up to (exclusive) until
// and returns the flat synthetic bars needed to close the gap. Minutes the
// calendar marks closed are skipped, as are the exact closing minutes
// 15:45 and 06:00 - those are reserved for a real or forced tick-driven
// bar so the session's final bar is never produced twice.
//
// The walk is a pure function of its inputs; the caller is responsible for
// the persistence watermark check before writing each bar.
func FillMissing(last, until time.Time, base decimal.Decimal, contractMonth string) []*market.Bar {
	var bars []*market.Bar
	for cur := last.Truncate(time.Minute).Add(time.Minute); cur.Before(until); cur = cur.Add(time.Minute) {
		if session.IsClosed(cur) {
			continue
		}
		if session.IsClosingMinute(cur) {
			continue
		}
		bars = append(bars, market.NewFlatBar(cur, base, contractMonth))
	}
	return bars
}
