package steps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractWindow(t *testing.T) {
	cases := []struct {
		query string
		days  int
	}{
		{"wie viele aktivitäten?", 7},
		{"how many activities in the last 3 days", 3},
		{"last 0 days", 1},
		{"wie viele in den letzten 10 tagen", 10},
		{"last 2 weeks", 14},
		{"letzten 3 wochen", 21},
		{"last month", 30},
		{"last 2 months", 60},
		{"letzten 2 monaten", 60},
		{"what did i do today", 1},
		{"was war gestern", 2},
		{"last 5 days and today", 1},
		{"heute und gestern", 2},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			w := ExtractWindow(tc.query, testNow)
			assert.Equal(t, tc.days, w.Days)
			assert.Equal(t, testNow.Add(-time.Duration(tc.days)*24*time.Hour), w.Since)
		})
	}
}

func TestParseOnDate(t *testing.T) {
	d, ok := ParseOnDate("was habe ich am 3.2.2026 gemacht", testNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), d.Start)
	assert.Equal(t, time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC), d.End)

	d, ok = ParseOnDate("what did i log on 24.12", testNow)
	require.True(t, ok)
	assert.Equal(t, 2026, d.Start.Year())
	assert.Equal(t, time.December, d.Start.Month())

	d, ok = ParseOnDate("am 1.5.25", testNow)
	require.True(t, ok)
	assert.Equal(t, 2025, d.Start.Year())

	_, ok = ParseOnDate("am 31.02.2026", testNow)
	assert.False(t, ok)
	_, ok = ParseOnDate("zusammen 12.3", testNow)
	assert.False(t, ok)

	d, ok = ParseOnDate("wie viele aktivitäten am 3.3.2026?", testNow)
	require.True(t, ok)
	assert.Equal(t, 3, d.Start.Day())
}

func TestParseOnDateIgnoresDecimals(t *testing.T) {
	for _, q := range []string{
		"i worked on 1.5 hours of reading",
		"am 2.5 std gelaufen",
		"on 1.555 things",
		"am 10.03.20260",
	} {
		_, ok := ParseOnDate(q, testNow)
		assert.False(t, ok, q)
	}
}

func TestParseOnDateUsesNowLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	d, ok := ParseOnDate("am 10.3.2026", testNow.In(berlin))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC), d.Start.UTC())
}
