// Package daterange resolves named relative date ranges.
package daterange

import (
	"sort"
	"strings"
	"time"

	"github.com/ajitpratap0/adreader/pkg/errors"
)

// Named ranges.
const (
	Yesterday     = "YESTERDAY"
	Last7Days     = "LAST_7_DAYS"
	PreviousWeek  = "PREVIOUS_WEEK"
	PreviousMonth = "PREVIOUS_MONTH"
	Last90Days    = "LAST_90_DAYS"
)

// Layout is the day format used by the APIs.
const Layout = "2006-01-02"

// Range is an inclusive span of days.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartString returns Start formatted as YYYY-MM-DD.
func (r Range) StartString() string { return r.Start.Format(Layout) }

// EndString returns End formatted as YYYY-MM-DD.
func (r Range) EndString() string { return r.End.Format(Layout) }

var resolvers = map[string]func(today time.Time) Range{
	Yesterday: func(today time.Time) Range {
		d := today.AddDate(0, 0, -1)
		return Range{Start: d, End: d}
	},
	Last7Days: func(today time.Time) Range {
		return Range{Start: today.AddDate(0, 0, -8), End: today.AddDate(0, 0, -1)}
	},
	PreviousWeek: func(today time.Time) Range {
		// Monday of the current week, then one week back
		offset := (int(today.Weekday()) + 6) % 7
		monday := today.AddDate(0, 0, -offset-7)
		return Range{Start: monday, End: monday.AddDate(0, 0, 6)}
	},
	PreviousMonth: func(today time.Time) Range {
		firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return Range{Start: firstOfMonth.AddDate(0, -1, 0), End: firstOfMonth.AddDate(0, 0, -1)}
	},
	Last90Days: func(today time.Time) Range {
		return Range{Start: today.AddDate(0, 0, -91), End: today.AddDate(0, 0, -1)}
	},
}

// Names lists the supported range names.
func Names() []string {
	names := make([]string, 0, len(resolvers))
	for n := range resolvers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the named range relative to the day of now.
func Resolve(name string, now time.Time) (Range, error) {
	fn, ok := resolvers[strings.ToUpper(name)]
	if !ok {
		return Range{}, errors.Newf(errors.ErrorTypeConfig, "unknown date range %q, expected one of %s", name, strings.Join(Names(), ", "))
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return fn(today), nil
}

// Parse parses an explicit start and end day.
func Parse(start, end string) (Range, error) {
	s, err := time.Parse(Layout, start)
	if err != nil {
		return Range{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid start date")
	}
	e, err := time.Parse(Layout, end)
	if err != nil {
		return Range{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid end date")
	}
	if e.Before(s) {
		return Range{}, errors.Newf(errors.ErrorTypeConfig, "start date %s is after end date %s", start, end)
	}
	return Range{Start: s, End: e}, nil
}
