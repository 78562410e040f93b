// Package calendar converts between the Ethiopian and (proleptic) Gregorian
// calendars through Julian Day Numbers.
//
// Ethiopian months 1–12 have 30 days each.  Month 13 (Pagume) has 5 days, or
// 6 in a leap year.  An Ethiopian year Y is a leap year when (Y+1)%4 == 0.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// ethiopianEpoch is the JDN of the day before 1-1-1 (Amete Mihret).
	ethiopianEpoch = 1724220

	MinYear = 1
	MaxYear = 9999

	Pagume = 13
)

// ErrInvalidDate is matched by every parse failure.
var ErrInvalidDate = errors.New("invalid ethiopian date")

// DateError describes why a date string was rejected.
type DateError struct {
	Input  string
	Reason string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid ethiopian date %q: %s", e.Input, e.Reason)
}

func (e *DateError) Unwrap() error { return ErrInvalidDate }

type EthiopianDate struct {
	Year  int
	Month int
	Day   int
}

// String renders the date as Y-M-D without leading zeros.
func (d EthiopianDate) String() string {
	return fmt.Sprintf("%d-%d-%d", d.Year, d.Month, d.Day)
}

// Valid reports whether d names a real day in years MinYear..MaxYear.
func (d EthiopianDate) Valid() bool {
	if d.Year < MinYear || d.Year > MaxYear {
		return false
	}
	if d.Month < 1 || d.Month > Pagume {
		return false
	}
	return d.Day >= 1 && d.Day <= DaysInEthiopianMonth(d.Year, d.Month)
}

func IsEthiopianLeap(year int) bool {
	return (year+1)%4 == 0
}

func IsGregorianLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInEthiopianMonth returns 0 for a month outside 1..13.
func DaysInEthiopianMonth(year, month int) int {
	switch {
	case month >= 1 && month < Pagume:
		return 30
	case month == Pagume && IsEthiopianLeap(year):
		return 6
	case month == Pagume:
		return 5
	default:
		return 0
	}
}

// ParseEthiopianDate accepts "YYYY-M-D" (year 1–4 digits, month and day 1–2
// digits, leading zeros allowed).  Errors wrap ErrInvalidDate.
func ParseEthiopianDate(text string) (EthiopianDate, error) {
	raw := text
	text = strings.TrimSpace(text)

	parts := strings.Split(text, "-")
	if len(parts) != 3 {
		return EthiopianDate{}, &DateError{Input: raw, Reason: "expected year-month-day"}
	}

	year, ok := parseDigits(parts[0], 4)
	if !ok {
		return EthiopianDate{}, &DateError{Input: raw, Reason: "year must be 1 to 4 digits"}
	}
	month, ok := parseDigits(parts[1], 2)
	if !ok {
		return EthiopianDate{}, &DateError{Input: raw, Reason: "month must be 1 or 2 digits"}
	}
	day, ok := parseDigits(parts[2], 2)
	if !ok {
		return EthiopianDate{}, &DateError{Input: raw, Reason: "day must be 1 or 2 digits"}
	}

	if year < MinYear {
		return EthiopianDate{}, &DateError{Input: raw, Reason: "year out of range"}
	}
	if month < 1 || month > Pagume {
		return EthiopianDate{}, &DateError{Input: raw, Reason: "month out of range"}
	}
	if max := DaysInEthiopianMonth(year, month); day < 1 || day > max {
		return EthiopianDate{}, &DateError{
			Input:  raw,
			Reason: fmt.Sprintf("day out of range for month %d (1-%d)", month, max),
		}
	}

	return EthiopianDate{Year: year, Month: month, Day: day}, nil
}

// NormalizeEthiopian parses text and re-renders it in canonical form.
func NormalizeEthiopian(text string) (string, error) {
	d, err := ParseEthiopianDate(text)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// EthiopianToGregorian returns midnight UTC of the matching Gregorian day.
// d must be valid.
func EthiopianToGregorian(d EthiopianDate) time.Time {
	return fromJDN(ethiopianToJDN(d))
}

// GregorianToEthiopian uses only the calendar date of t (its own location).
func GregorianToEthiopian(t time.Time) EthiopianDate {
	y, m, d := t.Date()
	return jdnToEthiopian(toJDN(y, int(m), d))
}

// ConvertEthiopian parses text and returns the normalized Ethiopian date with
// its Gregorian counterpart.
func ConvertEthiopian(text string) (EthiopianDate, time.Time, error) {
	d, err := ParseEthiopianDate(text)
	if err != nil {
		return EthiopianDate{}, time.Time{}, err
	}
	return d, EthiopianToGregorian(d), nil
}

func ethiopianToJDN(d EthiopianDate) int {
	return ethiopianEpoch + 365*(d.Year-1) + d.Year/4 + 30*(d.Month-1) + d.Day
}

func jdnToEthiopian(jdn int) EthiopianDate {
	// 1461-day cycles counted from the start of year 0.
	off := jdn - (ethiopianEpoch - 365 + 1)
	r := off % 1461
	n := r%365 + 365*(r/1460)

	return EthiopianDate{
		Year:  4*(off/1461) + r/365 - r/1460,
		Month: n/30 + 1,
		Day:   n%30 + 1,
	}
}

// toJDN is the Fliegel–Van Flandern conversion for the proleptic Gregorian
// calendar.
func toJDN(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

func fromJDN(jdn int) time.Time {
	a := jdn + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153

	day := e - (153*m+2)/5 + 1
	month := m + 3 - 12*(m/10)
	year := 100*b + d - 4800 + m/10

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func parseDigits(s string, maxLen int) (int, bool) {
	if len(s) == 0 || len(s) > maxLen {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
