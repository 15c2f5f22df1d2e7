package gnsstime

import "fmt"

// GlonassTime is a time in the GLONASS four-year cycle. LeapYears counts
// cycles since 1992 and may be negative back to 1984, DayNumber is 1-based
// within the cycle and DayMsCount is the millisecond of day in UTC+3h.
type GlonassTime struct {
	LeapYears  int `json:"leap_years"`
	DayNumber  int `json:"day_number"`
	DayMsCount int `json:"day_ms_count"`
}

// GlonassToUtc converts GLONASS cycle time to UTC calendar time
func GlonassToUtc(g GlonassTime) (CalendarTime, error) {
	if g.DayNumber < 1 || g.DayNumber > cycleDays {
		return CalendarTime{}, fmt.Errorf("%w: day number %d", ErrOutOfRange, g.DayNumber)
	}
	if g.DayMsCount < 0 || g.DayMsCount >= msPerDay {
		return CalendarTime{}, fmt.Errorf("%w: day ms count %d", ErrOutOfRange, g.DayMsCount)
	}

	c := glonassToCalendar(g.LeapYears, g.DayNumber, g.DayMsCount)
	if err := c.Validate(); err != nil {
		return CalendarTime{}, err
	}
	return c, nil
}

// glonassToCalendar does the conversion without range checks. dayMs may
// exceed one day by up to the UTC+3h offset.
func glonassToCalendar(leapYears, dayNumber, dayMs int) CalendarTime {
	var c CalendarTime

	dayMs -= glonassOffsetMs
	if dayMs < 0 {
		dayMs += msPerDay
		dayNumber--
		// borrowing from the first day of a cycle lands on the last day of the previous one
		if dayNumber < 1 {
			dayNumber += cycleDays
			leapYears--
		}
	}

	seconds := dayMs / 1000
	c.Millisecond = dayMs % 1000
	c.Hour = seconds / 3600
	c.Minute = seconds / 60 % 60
	c.Second = seconds % 60

	c.Year = cycleEpochYear + 4*leapYears
	day := dayNumber - 1
	leapDay := false
	switch {
	case day >= 366+365*2:
		day -= 366 + 365*2
		c.Year += 3
	case day >= 366+365:
		day -= 366 + 365
		c.Year += 2
	case day >= 366:
		day -= 366
		c.Year++
	case day >= 60:
		day--
	case day == 59:
		leapDay = true
	}

	if leapDay {
		c.Month, c.Day = 2, 29
		return c
	}

	month := 1
	for month < 12 && day >= daysAcc[month] {
		month++
	}
	c.Month = month
	c.Day = day - daysAcc[month-1] + 1

	return c
}

// UtcToGlonass converts UTC calendar time to GLONASS cycle time. The result is
// normalized so that DayMsCount is always less than one day.
func UtcToGlonass(c CalendarTime) (GlonassTime, error) {
	if err := c.Validate(); err != nil {
		return GlonassTime{}, err
	}

	leapYears, day := cycleDay(c)
	g := GlonassTime{
		LeapYears:  leapYears,
		DayNumber:  day + 1,
		DayMsCount: c.msOfDay() + glonassOffsetMs,
	}

	if g.DayMsCount >= msPerDay {
		g.DayMsCount -= msPerDay
		g.DayNumber++
		if g.DayNumber > cycleDays {
			g.DayNumber -= cycleDays
			g.LeapYears++
		}
	}

	return g, nil
}

// cycleDay returns the cycle index and the 0-based day within the cycle
func cycleDay(c CalendarTime) (leapYears, day int) {
	years := c.Year - cycleEpochYear
	leapYears = floorDiv(years, 4)
	yearInCycle := years - 4*leapYears

	day = daysAcc[c.Month-1] + c.Day - 1
	if yearInCycle != 0 || day >= 59 {
		day++
	}
	day += yearInCycle * 365

	return leapYears, day
}
