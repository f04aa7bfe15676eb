package kabus

import "time"

// ActiveContractMonth returns the "YYYYMM" of the front quarterly contract
// (March/June/September/December). The contract trades through the day
// before the second Friday of its month; past that the next quarter is
// active.
func ActiveContractMonth(ts time.Time) string {
	year, month := ts.Year(), int(ts.Month())

	// Next quarterly month at or after the current one.
	quarter := ((month + 2) / 3) * 3

	if quarter == month && !ts.Before(secondFriday(year, time.Month(month))) {
		quarter += 3
	}
	if quarter > 12 {
		quarter -= 12
		year++
	}

	return time.Date(year, time.Month(quarter), 1, 0, 0, 0, 0, ts.Location()).Format("200601")
}

// secondFriday returns midnight of the month's second Friday.
func secondFriday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7)
}
