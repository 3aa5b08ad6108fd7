package steps

import (
	"regexp"
	"strconv"
	"time"
)

const DefaultWindowDays = 7

// Window is the resolved lookback: everything with occurred_at >= Since.
type Window struct {
	Since time.Time
	Days  int
}

func WindowOf(now time.Time, days int) Window {
	if days < 1 {
		days = 1
	}
	return Window{Since: now.Add(-time.Duration(days) * 24 * time.Hour), Days: days}
}

var (
	reLastDays   = regexp.MustCompile(`\b(?:letzten|last|past)\s+(\d+)\s*(?:tag(?:e|en)?|days?)\b`)
	reLastWeeks  = regexp.MustCompile(`\b(?:letzten|last|past)\s+(?:(\d+)\s*)?(?:woche(?:n)?|weeks?)\b`)
	reLastMonths = regexp.MustCompile(`\b(?:letzten|last|past)\s+(?:(\d+)\s*)?(?:monat(?:e|en)?|months?)\b`)
	reToday      = regexp.MustCompile(`\b(?:heute|today)\b`)
	reYesterday  = regexp.MustCompile(`\b(?:gestern|yesterday)\b`)
)

// ExtractWindow resolves the lookback window from lower-cased query text.
// Numeric day/week/month patterns are tried in that order; "today" and
// "yesterday" are applied afterwards and win. A month is 30 days.
func ExtractWindow(lower string, now time.Time) Window {
	days := DefaultWindowDays
	if m := reLastDays.FindStringSubmatch(lower); m != nil {
		days = atLeastOne(m[1])
	} else if m := reLastWeeks.FindStringSubmatch(lower); m != nil {
		days = atLeastOne(m[1]) * 7
	} else if m := reLastMonths.FindStringSubmatch(lower); m != nil {
		days = atLeastOne(m[1]) * 30
	}
	if reToday.MatchString(lower) {
		days = 1
	}
	if reYesterday.MatchString(lower) {
		days = 2
	}
	return WindowOf(now, days)
}

func atLeastOne(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// DayRange is one local calendar day, [Start, End).
type DayRange struct {
	Start time.Time
	End   time.Time
}

var (
	reOnDate = regexp.MustCompile(`\b(?:am|on)\s*(\d{1,2})\.(\d{1,2})(?:\.(\d{4}|\d{2}))?\.?(?:[^\d.]|$)`)
	// A unit after the number makes it a quantity ("on 1.5 hours").
	reQuantityUnit = regexp.MustCompile(`^\s*(?:h|hrs?|hours?|std|stunden?|min|minuten?|minutes?|km|kg|mal|times)\b`)
)

// ParseOnDate finds "am DD.MM[.YYYY]" / "on DD.MM[.YYYY]". The year defaults
// to now's year; two-digit years are 20YY. Impossible dates and decimal
// quantities do not match.
func ParseOnDate(lower string, now time.Time) (DayRange, bool) {
	idx := reOnDate.FindStringSubmatchIndex(lower)
	if idx == nil {
		return DayRange{}, false
	}
	dateEnd := idx[5]
	if idx[7] >= 0 {
		dateEnd = idx[7]
	}
	if reQuantityUnit.MatchString(lower[dateEnd:]) {
		return DayRange{}, false
	}
	m := make([]string, 4)
	for i := 1; i < 4; i++ {
		if idx[2*i] >= 0 {
			m[i] = lower[idx[2*i]:idx[2*i+1]]
		}
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year := now.Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
	}
	loc := now.Location()
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if start.Day() != day || int(start.Month()) != month || start.Year() != year {
		return DayRange{}, false
	}
	return DayRange{Start: start, End: start.AddDate(0, 0, 1)}, true
}
