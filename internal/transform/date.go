package transform

import (
	"strings"
	"time"

	"github.com/adraguidev/dashboardproject-sub001/internal/rowsource"
)

// serialEpoch is the spreadsheet date-serial epoch: serial 1 = 1899-12-31.
// The off-by-two against 1900-01-01 preserves the historical leap-year quirk
// shared by the common spreadsheet formats.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxSerial bounds serials at year 9999 so absurd numerics fall through to
// NULL instead of producing dates the store rejects.
const maxSerial = 2958465

// isoDate is the textual form fed to the store for date columns. Keeping it
// in this shape maximizes the post-load coercion pass's cast success rate.
const isoDate = "2006-01-02"

// stringLayouts are tried in order against string cells: day-first with
// slashes, then ISO with dashes. The day-first preference matches the source
// system; ambiguous strings like 03/04/2024 resolve day-first on purpose.
var stringLayouts = []string{"02/01/2006", isoDate}

// dateFromSerial converts a spreadsheet day serial to a calendar date,
// discarding any fractional time-of-day. Serials outside (0, maxSerial] fail.
func dateFromSerial(f float64) (time.Time, bool) {
	days := int(f)
	if days <= 0 || days > maxSerial {
		return time.Time{}, false
	}
	return serialEpoch.AddDate(0, 0, days), true
}

// dateFromString parses a calendar date from s using stringLayouts; the first
// successful parse wins.
func dateFromString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range stringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateValue coerces any cell into an ISO calendar-date string or nil. It
// never fails: a value that cannot be read as a date is silently NULL.
func DateValue(c rowsource.Cell) any {
	switch c.Kind {
	case rowsource.CellDate:
		return c.Time.Format(isoDate)
	case rowsource.CellNumber:
		if t, ok := dateFromSerial(c.Num); ok {
			return t.Format(isoDate)
		}
		return nil
	case rowsource.CellString:
		if t, ok := dateFromString(c.Str); ok {
			return t.Format(isoDate)
		}
		return nil
	default:
		return nil
	}
}
