// Package calendar converts between the user's display calendar and the
// canonical storage format. Dates are always stored Gregorian YYYY-MM-DD
// regardless of the calendar the user types in.
package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"

	"finbot/internal/common/errors"
	"finbot/internal/models"
	"finbot/internal/textnorm"
)

// CanonicalLayout is the storage format for all dates.
const CanonicalLayout = "2006-01-02"

var inputPattern = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)

// ParseInput validates a user-typed date against the active calendar and
// returns it in canonical form. Input digits may be Persian or Arabic.
func ParseInput(system models.CalendarSystem, raw string) (string, error) {
	cleaned := strings.TrimSpace(textnorm.Digits(raw))
	m := inputPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return "", errors.NewValidationFailedError("date", fmt.Sprintf("%q does not match YYYY/MM/DD", raw))
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	switch system {
	case models.CalendarJalali:
		return jalaliToCanonical(year, month, day, raw)
	case models.CalendarGregorian:
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			return "", errors.NewValidationFailedError("date", fmt.Sprintf("%q is not a valid gregorian date", raw))
		}
		return t.Format(CanonicalLayout), nil
	default:
		return "", errors.NewValidationFailedError("calendar", fmt.Sprintf("unknown calendar system %q", system))
	}
}

func jalaliToCanonical(year, month, day int, raw string) (string, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", errors.NewValidationFailedError("date", fmt.Sprintf("%q is not a valid jalali date", raw))
	}

	pt := ptime.Date(year, ptime.Month(month), day, 0, 0, 0, 0, ptime.Iran())
	// ptime normalizes overflow the way time.Date does; a round trip
	// detects inputs like 1403/12/31 in a non-leap year.
	if pt.Year() != year || int(pt.Month()) != month || pt.Day() != day {
		return "", errors.NewValidationFailedError("date", fmt.Sprintf("%q is not a valid jalali date", raw))
	}
	return pt.Time().Format(CanonicalLayout), nil
}

// Format renders a canonical date in the user's display calendar.
func Format(system models.CalendarSystem, canonical string) (string, error) {
	t, err := time.Parse(CanonicalLayout, canonical)
	if err != nil {
		return "", errors.NewValidationFailedError("date", fmt.Sprintf("%q is not canonical", canonical))
	}

	if system == models.CalendarJalali {
		return ptime.New(t).Format("yyyy/MM/dd"), nil
	}
	return t.Format("2006/01/02"), nil
}

// Today returns the current date in canonical form.
func Today(now time.Time) string {
	return now.Format(CanonicalLayout)
}

// MonthRange returns the first day of now's month and now itself, both
// canonical, in the given display calendar's month boundaries.
func MonthRange(system models.CalendarSystem, now time.Time) (string, string) {
	if system == models.CalendarJalali {
		pt := ptime.New(now)
		first := ptime.Date(pt.Year(), pt.Month(), 1, 0, 0, 0, 0, ptime.Iran())
		return first.Time().Format(CanonicalLayout), now.Format(CanonicalLayout)
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.Format(CanonicalLayout), now.Format(CanonicalLayout)
}

// WeekRange returns today and today+6 days, canonical.
func WeekRange(now time.Time) (string, string) {
	return now.Format(CanonicalLayout), now.AddDate(0, 0, 6).Format(CanonicalLayout)
}
