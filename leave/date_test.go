package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysInclusive(t *testing.T) {
	start := NewDate(2024, time.January, 1)

	// Same day is one day; every extra calendar day adds one, across month,
	// leap day and DST-free year boundaries.
	for n := 0; n < 400; n++ {
		end := start.AddDays(n)
		assert.Equal(t, n+1, DaysInclusive(start, end), "end=%s", end)
	}

	assert.Equal(t, 3, DaysInclusive(MustParseDate("2024-01-01"), MustParseDate("2024-01-03")))
	assert.Equal(t, 2, DaysInclusive(MustParseDate("2024-02-28"), MustParseDate("2024-02-29")))

	// Ranges longer than time.Duration can hold (~292 years) still count exactly.
	far := NewDate(2026, time.October, 17)
	assert.Equal(t, 136601, DaysInclusive(far, far.AddDays(136600)))
	assert.Equal(t, 136601, DaysInclusive(far, NewDate(2400, time.October, 16)))
}

func TestParseDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		loc   *time.Location
		want  string
	}{
		{"plain date", "2024-03-05", time.UTC, "2024-03-05"},
		{"whitespace", " 2024-03-05 ", time.UTC, "2024-03-05"},
		{"rfc3339 in utc", "2024-03-05T23:30:00-05:00", time.UTC, "2024-03-06"},
		{"rfc3339 in local zone", "2024-03-05T23:30:00-05:00", ny, "2024-03-05"},
		{"plain date ignores zone", "2024-03-05", ny, "2024-03-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.input, tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "2024-13-01", "03/05/2024", "tomorrow"} {
		_, err := ParseDate(in, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidDate, in)
	}
}

func TestDateOf_IgnoresTimeOfDay(t *testing.T) {
	morning := DateOf(time.Date(2024, 5, 1, 0, 0, 1, 0, time.UTC), time.UTC)
	night := DateOf(time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC), time.UTC)
	assert.True(t, morning.Equal(night))
	assert.False(t, morning.Before(night))
}

func TestParseMonth(t *testing.T) {
	today := MustParseDate("2024-07-15")

	assert.Equal(t, Month{Year: 2024, Month: time.February}, ParseMonth("2024-02", today))
	assert.Equal(t, Month{Year: 2023, Month: time.December}, ParseMonth("2023-12", today))

	for _, bad := range []string{"", "2024", "2024-13", "2024-00", "abcd-01", "2024-02-01"} {
		assert.Equal(t, Month{Year: 2024, Month: time.July}, ParseMonth(bad, today), bad)
	}
}

func TestMonthBounds(t *testing.T) {
	feb := Month{Year: 2024, Month: time.February}
	assert.Equal(t, "2024-02-01", feb.First().String())
	assert.Equal(t, "2024-02-29", feb.Last().String())
	assert.Equal(t, "2024-02", feb.String())

	dec := Month{Year: 2023, Month: time.December}
	assert.Equal(t, "2023-12-31", dec.Last().String())
}

func TestBalance(t *testing.T) {
	b := Balance{}
	b.Set("annual", 5)

	assert.Equal(t, 5, b.Get("ANNUAL"))
	assert.Equal(t, 5, b.Get(" Annual "))
	assert.Equal(t, 0, b.Get("MEDICAL"))

	assert.Equal(t, 2, b.Deduct("Annual", 3))
	assert.Equal(t, 0, b.Deduct("ANNUAL", 10))

	b.Set("casual", -4)
	assert.Equal(t, 0, b.Get("CASUAL"))

	var empty Balance
	assert.Equal(t, 0, empty.Get("ANNUAL"))
}

func TestBalance_Normalized(t *testing.T) {
	b := Balance{"annual": 2, "ANNUAL": 3, "medical": -1}

	n := b.Normalized()

	assert.Equal(t, Balance{"ANNUAL": 5, "MEDICAL": 0}, n)
	n.Set("ANNUAL", 0)
	assert.Equal(t, 2, b["annual"])
}
