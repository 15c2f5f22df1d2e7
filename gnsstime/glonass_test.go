package gnsstime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGlonassToUtc(t *testing.T) {
	tests := []struct {
		name string
		in   GlonassTime
		want CalendarTime
	}{
		{
			name: "leap day",
			in:   GlonassTime{LeapYears: 8, DayNumber: 60, DayMsCount: 12 * 3600000},
			want: CalendarTime{Year: 2024, Month: 2, Day: 29, Hour: 9},
		},
		{
			name: "first of march in leap year",
			in:   GlonassTime{LeapYears: 8, DayNumber: 61, DayMsCount: 3 * 3600000},
			want: CalendarTime{Year: 2024, Month: 3, Day: 1},
		},
		{
			name: "first of march in common year",
			in:   GlonassTime{LeapYears: 8, DayNumber: 366 + 60, DayMsCount: 3*3600000 + 1},
			want: CalendarTime{Year: 2025, Month: 3, Day: 1, Millisecond: 1},
		},
		{
			name: "last day of cycle",
			in:   GlonassTime{LeapYears: 0, DayNumber: 1461, DayMsCount: 86399999},
			want: CalendarTime{Year: 1995, Month: 12, Day: 31, Hour: 20, Minute: 59, Second: 59, Millisecond: 999},
		},
		{
			name: "borrow into previous cycle",
			in:   GlonassTime{LeapYears: 8, DayNumber: 1, DayMsCount: 3600000},
			want: CalendarTime{Year: 2023, Month: 12, Day: 31, Hour: 22},
		},
		{
			name: "start of 1984",
			in:   GlonassTime{LeapYears: -2, DayNumber: 1, DayMsCount: 3 * 3600000},
			want: CalendarTime{Year: 1984, Month: 1, Day: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GlonassToUtc(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGlonassToUtcOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		in   GlonassTime
	}{
		{"day zero", GlonassTime{LeapYears: 8, DayNumber: 0}},
		{"day past cycle", GlonassTime{LeapYears: 8, DayNumber: 1462}},
		{"negative ms", GlonassTime{LeapYears: 8, DayNumber: 1, DayMsCount: -1}},
		{"ms past day", GlonassTime{LeapYears: 8, DayNumber: 1, DayMsCount: 86400000}},
		{"before 1984", GlonassTime{LeapYears: -2, DayNumber: 1, DayMsCount: 0}},
		{"after 2099", GlonassTime{LeapYears: 27, DayNumber: 1, DayMsCount: 4 * 3600000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GlonassToUtc(tt.in)
			assert.ErrorIs(t, err, ErrOutOfRange)
		})
	}
}

func TestUtcToGlonass(t *testing.T) {
	g, err := UtcToGlonass(CalendarTime{Year: 2024, Month: 2, Day: 29, Hour: 9})
	require.NoError(t, err)
	assert.Equal(t, GlonassTime{LeapYears: 8, DayNumber: 60, DayMsCount: 12 * 3600000}, g)

	// late evening UTC is already the next day in Moscow
	g, err = UtcToGlonass(CalendarTime{Year: 2023, Month: 12, Day: 31, Hour: 22})
	require.NoError(t, err)
	assert.Equal(t, GlonassTime{LeapYears: 8, DayNumber: 1, DayMsCount: 3600000}, g)

	g, err = UtcToGlonass(CalendarTime{Year: 1985, Month: 1, Day: 1})
	require.NoError(t, err)
	assert.Equal(t, GlonassTime{LeapYears: -2, DayNumber: 367, DayMsCount: 3 * 3600000}, g)
}

func drawCalendar(t *rapid.T) CalendarTime {
	year := rapid.IntRange(MinYear, MaxYear).Draw(t, "year")
	month := rapid.IntRange(1, 12).Draw(t, "month")
	return CalendarTime{
		Year:        year,
		Month:       month,
		Day:         rapid.IntRange(1, daysInMonth(year, month)).Draw(t, "day"),
		Hour:        rapid.IntRange(0, 23).Draw(t, "hour"),
		Minute:      rapid.IntRange(0, 59).Draw(t, "minute"),
		Second:      rapid.IntRange(0, 59).Draw(t, "second"),
		Millisecond: rapid.IntRange(0, 999).Draw(t, "ms"),
	}
}

func TestGlonassRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := drawCalendar(t)

		g, err := UtcToGlonass(c)
		if err != nil {
			t.Fatalf("UtcToGlonass(%v): %v", c, err)
		}
		back, err := GlonassToUtc(g)
		if err != nil {
			t.Fatalf("GlonassToUtc(%+v): %v", g, err)
		}
		if back != c {
			t.Fatalf("round trip %v -> %+v -> %v", c, g, back)
		}
	})
}
