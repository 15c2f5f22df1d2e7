package gnsstime

import "fmt"

// DefaultLeapSeconds is the GPS-UTC offset applied when no valid broadcast
// parameters are available.
const DefaultLeapSeconds = 18

// LeapSecondParams are the broadcast UTC parameters relevant to leap seconds.
// WNLSF is a full (not truncated) GPS week and DN is the 1-based day of week at
// whose end TLSF takes effect.
type LeapSecondParams struct {
	TLS   int  `json:"tls" yaml:"tls"`
	TLSF  int  `json:"tlsf" yaml:"tlsf"`
	WNLSF int  `json:"wnlsf" yaml:"wnlsf"`
	DN    int  `json:"dn" yaml:"dn"`
	Valid bool `json:"valid" yaml:"valid"`
}

// Validate checks the parameters for internal consistency. Invalid-flagged
// parameters are never used and always pass.
func (p *LeapSecondParams) Validate() error {
	if p == nil || !p.Valid {
		return nil
	}
	if p.TLS < 0 || p.TLSF < 0 {
		return fmt.Errorf("%w: negative leap second count", ErrOutOfRange)
	}
	if p.TLS != p.TLSF {
		if p.WNLSF < 0 {
			return fmt.Errorf("%w: leap second week %d", ErrOutOfRange, p.WNLSF)
		}
		if p.DN < 1 || p.DN > 7 {
			return fmt.Errorf("%w: leap second day %d", ErrOutOfRange, p.DN)
		}
	}
	return nil
}

// current returns the offset in effect before any pending change
func (p *LeapSecondParams) current() int {
	if p == nil || !p.Valid {
		return DefaultLeapSeconds
	}
	return p.TLS
}

// pendingApplies reports whether a pending change is in effect on the UTC day
// utcDays days after the GPS epoch. DN counts from 1 on Sunday and the change
// happens at the end of day DN, so the new offset holds from zero-based day
// index DN of week WNLSF.
func (p *LeapSecondParams) pendingApplies(utcDays int) bool {
	if p == nil || !p.Valid || p.TLS == p.TLSF {
		return false
	}
	week, dayOfWeek := utcDays/7, utcDays%7
	return week > p.WNLSF || (week == p.WNLSF && dayOfWeek >= p.DN)
}

// GpsToUtc converts a GPS week and millisecond of week to UTC. params may be
// nil, in which case DefaultLeapSeconds is applied.
func GpsToUtc(week, weekMs int, params *LeapSecondParams) (CalendarTime, error) {
	if week < 0 {
		return CalendarTime{}, fmt.Errorf("%w: week %d", ErrOutOfRange, week)
	}
	if weekMs < 0 || weekMs >= msPerWeek {
		return CalendarTime{}, fmt.Errorf("%w: week ms %d", ErrOutOfRange, weekMs)
	}
	if err := params.Validate(); err != nil {
		return CalendarTime{}, err
	}

	// one extra week keeps the count positive after the leap second subtraction
	totalDays, ms := splitDays(week, weekMs, params.current())
	if params.pendingApplies(totalDays) {
		totalDays, ms = splitDays(week, weekMs, params.TLSF)
	}

	totalDays -= gpsRebaseWeeks * 7
	cycles := floorDiv(totalDays, cycleDays)
	totalDays -= cycles * cycleDays

	c := glonassToCalendar(cycles-2, totalDays+1, ms+glonassOffsetMs)
	if err := c.Validate(); err != nil {
		return CalendarTime{}, err
	}
	return c, nil
}

// splitDays returns UTC days since the GPS epoch and the millisecond of day
func splitDays(week, weekMs, leapSeconds int) (days, ms int) {
	ms = weekMs + msPerWeek - leapSeconds*1000
	days = (week-1)*7 + ms/msPerDay
	return days, ms % msPerDay
}

// UtcToGps converts UTC to GPS week and millisecond of week. params may be
// nil, in which case DefaultLeapSeconds is applied.
func UtcToGps(c CalendarTime, params *LeapSecondParams) (week, weekMs int, err error) {
	if err := c.Validate(); err != nil {
		return 0, 0, err
	}
	if err := params.Validate(); err != nil {
		return 0, 0, err
	}

	leapYears, day := cycleDay(c)
	utcDays := day + (leapYears+2)*cycleDays + gpsRebaseWeeks*7

	leap := params.current()
	if params.pendingApplies(utcDays) {
		leap = params.TLSF
	}

	ms := c.msOfDay() + leap*1000
	days := utcDays
	if ms >= msPerDay {
		ms -= msPerDay
		days++
	} else if ms < 0 {
		ms += msPerDay
		days--
	}

	return days / 7, (days%7)*msPerDay + ms, nil
}
