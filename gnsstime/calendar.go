// Package gnsstime converts between GPS week time, UTC calendar time and the
// GLONASS four-year cycle representation used as the internal pivot.
package gnsstime

import (
	"fmt"
	"time"
)

const (
	msPerDay  = 86400000
	msPerWeek = 7 * msPerDay

	// cycleDays is one leap year plus three common years
	cycleDays = 366 + 365*3

	// glonassOffsetMs shifts UTC to Moscow time (UTC+3h)
	glonassOffsetMs = 3 * 3600 * 1000

	// cycleEpochYear is the first year of the GLONASS cycle with LeapYears == 0
	cycleEpochYear = 1992

	// gpsRebaseWeeks is the number of GPS weeks from 1980-01-06 to 1984-01-01
	gpsRebaseWeeks = 208

	MinYear = 1984
	MaxYear = 2099
)

// daysAcc is the cumulative day count at the start of each month of a common year
var daysAcc = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// CalendarTime is a broken-down UTC time with millisecond resolution
type CalendarTime struct {
	Year        int `json:"year"`
	Month       int `json:"month"`
	Day         int `json:"day"`
	Hour        int `json:"hour"`
	Minute      int `json:"minute"`
	Second      int `json:"second"`
	Millisecond int `json:"millisecond"`
}

// FromTime converts a time.Time to calendar fields in UTC, truncating to the
// millisecond.
func FromTime(t time.Time) CalendarTime {
	t = t.UTC()
	return CalendarTime{
		Year:        t.Year(),
		Month:       int(t.Month()),
		Day:         t.Day(),
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Millisecond: t.Nanosecond() / int(time.Millisecond),
	}
}

// Time returns the calendar value as a UTC time.Time
func (c CalendarTime) Time() time.Time {
	return time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, c.Second,
		c.Millisecond*int(time.Millisecond), time.UTC)
}

func (c CalendarTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03dZ",
		c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, c.Millisecond)
}

// Validate checks every field against the supported range
func (c CalendarTime) Validate() error {
	if c.Year < MinYear || c.Year > MaxYear {
		return fmt.Errorf("%w: year %d", ErrOutOfRange, c.Year)
	}
	if c.Month < 1 || c.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrOutOfRange, c.Month)
	}
	if c.Day < 1 || c.Day > daysInMonth(c.Year, c.Month) {
		return fmt.Errorf("%w: day %d of %04d-%02d", ErrOutOfRange, c.Day, c.Year, c.Month)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 || c.Second < 0 || c.Second > 59 {
		return fmt.Errorf("%w: time of day %02d:%02d:%02d", ErrOutOfRange, c.Hour, c.Minute, c.Second)
	}
	if c.Millisecond < 0 || c.Millisecond > 999 {
		return fmt.Errorf("%w: millisecond %d", ErrOutOfRange, c.Millisecond)
	}
	return nil
}

// msOfDay returns the milliseconds elapsed since midnight
func (c CalendarTime) msOfDay() int {
	return ((c.Hour*60+c.Minute)*60+c.Second)*1000 + c.Millisecond
}

// daysInMonth treats every fourth year as a leap year, which holds through 2099
func daysInMonth(year, month int) int {
	if month == 12 {
		return 31
	}
	n := daysAcc[month] - daysAcc[month-1]
	if month == 2 && year%4 == 0 {
		n++
	}
	return n
}

// floorDiv divides rounding toward negative infinity
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
