package calendar_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woreda-portal/server/internal/portal/calendar"
)

func gdate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ── Known conversions ────────────────────────────────────────────────────────

func TestEthiopianToGregorian_KnownDates(t *testing.T) {
	tests := []struct {
		eth  string
		want time.Time
	}{
		{"2016-1-1", gdate(2023, time.September, 12)}, // Gregorian 2024 is leap
		{"2017-1-1", gdate(2024, time.September, 11)},
		{"2015-1-1", gdate(2022, time.September, 11)},
		{"2015-13-6", gdate(2023, time.September, 11)},
		{"2016-5-1", gdate(2024, time.January, 10)},
		{"2016-4-29", gdate(2024, time.January, 8)},
		{"1-1-1", gdate(8, time.August, 27)},
	}

	for _, tt := range tests {
		t.Run(tt.eth, func(t *testing.T) {
			d, err := calendar.ParseEthiopianDate(tt.eth)
			require.NoError(t, err)
			assert.Equal(t, tt.want, calendar.EthiopianToGregorian(d))
		})
	}
}

func TestGregorianToEthiopian_NewYear(t *testing.T) {
	got := calendar.GregorianToEthiopian(gdate(2023, time.September, 12))
	assert.Equal(t, calendar.EthiopianDate{Year: 2016, Month: 1, Day: 1}, got)

	// The day before is Pagume 6 of the leap year 2015.
	got = calendar.GregorianToEthiopian(gdate(2023, time.September, 11))
	assert.Equal(t, calendar.EthiopianDate{Year: 2015, Month: 13, Day: 6}, got)
}

func TestGregorianToEthiopian_IgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	got := calendar.GregorianToEthiopian(time.Date(2023, time.September, 12, 23, 59, 0, 0, loc))
	assert.Equal(t, "2016-1-1", got.String())
}

// ── Round trip ───────────────────────────────────────────────────────────────

func TestRoundTrip_AllDays(t *testing.T) {
	if testing.Short() {
		t.Skip("full-range round trip")
	}

	for y := calendar.MinYear; y <= calendar.MaxYear; y++ {
		for m := 1; m <= calendar.Pagume; m++ {
			for d := 1; d <= calendar.DaysInEthiopianMonth(y, m); d++ {
				want := calendar.EthiopianDate{Year: y, Month: m, Day: d}
				got := calendar.GregorianToEthiopian(calendar.EthiopianToGregorian(want))
				if got != want {
					t.Fatalf("round trip %s: got %s", want, got)
				}
			}
		}
	}
}

func TestRoundTrip_ConsecutiveDays(t *testing.T) {
	start := gdate(2020, time.January, 1)
	prev := calendar.GregorianToEthiopian(start.AddDate(0, 0, -1))

	for i := 0; i < 366*8; i++ {
		day := start.AddDate(0, 0, i)
		eth := calendar.GregorianToEthiopian(day)
		require.True(t, eth.Valid(), "invalid date %s for %s", eth, day)
		require.Equal(t, day, calendar.EthiopianToGregorian(eth))
		require.NotEqual(t, prev, eth)
		prev = eth
	}
}

// ── Leap rules ───────────────────────────────────────────────────────────────

func TestIsEthiopianLeap(t *testing.T) {
	assert.True(t, calendar.IsEthiopianLeap(2015))
	assert.True(t, calendar.IsEthiopianLeap(2019))
	assert.False(t, calendar.IsEthiopianLeap(2016))
	assert.False(t, calendar.IsEthiopianLeap(2017))
	assert.False(t, calendar.IsEthiopianLeap(2018))
}

func TestIsGregorianLeap(t *testing.T) {
	assert.True(t, calendar.IsGregorianLeap(2024))
	assert.True(t, calendar.IsGregorianLeap(2000))
	assert.False(t, calendar.IsGregorianLeap(1900))
	assert.False(t, calendar.IsGregorianLeap(2023))
}

func TestDaysInEthiopianMonth(t *testing.T) {
	assert.Equal(t, 30, calendar.DaysInEthiopianMonth(2016, 2))
	assert.Equal(t, 5, calendar.DaysInEthiopianMonth(2016, 13))
	assert.Equal(t, 6, calendar.DaysInEthiopianMonth(2015, 13))
	assert.Equal(t, 0, calendar.DaysInEthiopianMonth(2016, 14))
	assert.Equal(t, 0, calendar.DaysInEthiopianMonth(2016, 0))
}

// ── Parsing ──────────────────────────────────────────────────────────────────

func TestParseEthiopianDate_Accepts(t *testing.T) {
	tests := map[string]string{
		"2016-1-1":     "2016-1-1",
		"2016-01-01":   "2016-1-1",
		" 2016-12-30 ": "2016-12-30",
		"2015-13-6":    "2015-13-6",
		"2016-13-5":    "2016-13-5",
		"9999-13-5":    "9999-13-5",
		"1-1-1":        "1-1-1",
		"0015-2-3":     "15-2-3",
		// Every month before Pagume has 30 days.
		"2015-2-30": "2015-2-30",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := calendar.NormalizeEthiopian(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseEthiopianDate_Rejects(t *testing.T) {
	inputs := []string{
		"",
		"2016",
		"2016-1",
		"2016-1-1-1",
		"2016/1/1",
		"2016-0-1",
		"2016-14-1",
		"2016-1-0",
		"2015-2-31",
		"2016-13-6", // 2016 is not leap
		"2015-13-7",
		"0-1-1",
		"10000-1-1",
		"2016-001-1",
		"2016-1-001",
		"-2016-1-1",
		"2016-+1-1",
		"abcd-1-1",
		"٢٠١٦-1-1",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := calendar.ParseEthiopianDate(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, calendar.ErrInvalidDate))

			var de *calendar.DateError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, in, de.Input)
		})
	}
}

func TestParseEthiopianDate_PagumeFollowsLeapRule(t *testing.T) {
	for y := 2000; y < 2030; y++ {
		d := calendar.EthiopianDate{Year: y, Month: 13, Day: 6}
		_, err := calendar.ParseEthiopianDate(d.String())
		if calendar.IsEthiopianLeap(y) {
			assert.NoError(t, err, "year %d", y)
		} else {
			assert.Error(t, err, "year %d", y)
		}
	}
}

func TestConvertEthiopian(t *testing.T) {
	d, g, err := calendar.ConvertEthiopian("2016-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2016-1-1", d.String())
	assert.Equal(t, "2023-09-12", g.Format(time.DateOnly))

	_, _, err = calendar.ConvertEthiopian("2016-13-6")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}
