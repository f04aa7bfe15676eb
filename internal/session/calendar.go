// Package session maps timestamps onto the exchange's trading calendar for
// the Nikkei 225 mini future: a day session of 08:45-15:45 and a night
// session of 17:00-06:00 spanning midnight. All functions are pure; every
// boundary constant of the system lives here.
package session

import "time"

// Phase classifies a timestamp relative to the trading sessions.
type Phase int

const (
	// PhaseClosed covers the maintenance windows 15:46-16:59 and 06:01-08:44.
	PhaseClosed Phase = iota
	// PhaseDay covers 08:45 through the 15:45 closing minute.
	PhaseDay
	// PhaseNight covers 17:00 through the 06:00 closing minute.
	PhaseNight
)

func (p Phase) String() string {
	switch p {
	case PhaseDay:
		return "day"
	case PhaseNight:
		return "night"
	default:
		return "closed"
	}
}

// Minute-of-day boundaries. The closing minutes 15:45 and 06:00 belong to
// their sessions so that the forced closing bar classifies as tradable.
const (
	dayOpenMinute    = 8*60 + 45
	dayCloseMinute   = 15*60 + 45
	nightOpenMinute  = 17 * 60
	nightCloseMinute = 6 * 60
)

func minuteOfDay(ts time.Time) int {
	return ts.Hour()*60 + ts.Minute()
}

// Classify reports which phase the timestamp falls in.
func Classify(ts time.Time) Phase {
	m := minuteOfDay(ts)
	switch {
	case m >= dayOpenMinute && m <= dayCloseMinute:
		return PhaseDay
	case m >= nightOpenMinute || m <= nightCloseMinute:
		return PhaseNight
	default:
		return PhaseClosed
	}
}

// IsClosed reports whether the market is in a maintenance window.
func IsClosed(ts time.Time) bool {
	return Classify(ts) == PhaseClosed
}

// TradeDate returns the logical trading day the timestamp belongs to.
// Timestamps at or after 17:00 anchor to the next calendar day; weekend
// dates roll back to Friday.
func TradeDate(ts time.Time) time.Time {
	d := ts
	if minuteOfDay(ts) >= nightOpenMinute {
		d = d.AddDate(0, 0, 1)
	}
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, ts.Location())
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// IsOpeningMinute reports whether ts is the first minute of a session.
func IsOpeningMinute(ts time.Time) bool {
	m := minuteOfDay(ts)
	return m == dayOpenMinute || m == nightOpenMinute
}

// IsClosingMinute reports whether ts is the minute whose bar must be forced
// at session close (15:45 day, 06:00 night).
func IsClosingMinute(ts time.Time) bool {
	m := minuteOfDay(ts)
	return m == dayCloseMinute || m == nightCloseMinute
}

// SessionEnd returns the wall-clock instant after which the consuming
// process should stop: 06:05 of the trade date during the night session,
// 15:50 during the day session. The second return is false outside both.
func SessionEnd(now time.Time) (time.Time, bool) {
	m := minuteOfDay(now)
	switch {
	case m >= nightOpenMinute || m < nightCloseMinute:
		td := TradeDate(now)
		return time.Date(td.Year(), td.Month(), td.Day(), 6, 5, 0, 0, now.Location()), true
	case m >= dayOpenMinute && m < dayCloseMinute:
		return time.Date(now.Year(), now.Month(), now.Day(), 15, 50, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

// NextClosing returns the soonest closing instant after now: today's 06:00,
// today's 15:45, or the next day's 06:00.
func NextClosing(now time.Time) time.Time {
	m := minuteOfDay(now)
	switch {
	case m < nightCloseMinute:
		return time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	case m < dayCloseMinute:
		return time.Date(now.Year(), now.Month(), now.Day(), 15, 45, 0, 0, now.Location())
	default:
		next := now.AddDate(0, 0, 1)
		return time.Date(next.Year(), next.Month(), next.Day(), 6, 0, 0, 0, now.Location())
	}
}

// ExchangeCode returns the broker's exchange code for derivative
// registration: 23 during the day session window, 24 otherwise.
func ExchangeCode(now time.Time) int {
	m := minuteOfDay(now)
	if m >= 8*60+43 && m <= 15*60+47 {
		return 23
	}
	return 24
}
