package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	in := time.Date(2024, 7, 15, 23, 30, 0, 0, loc)

	got := DateOnly(in)
	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestNightsAndDays(t *testing.T) {
	checkIn, _ := ParseDate("2024-07-15")
	checkOut, _ := ParseDate("2024-07-22")

	assert.Equal(t, 7, Nights(checkIn, checkOut))
	days := Days(checkIn, checkOut)
	require.Len(t, days, 7)
	assert.Equal(t, "2024-07-15", FormatDate(days[0]))
	assert.Equal(t, "2024-07-21", FormatDate(days[6]))
	assert.Empty(t, Days(checkOut, checkIn))
}

func TestNights_AcrossDSTIrrelevant(t *testing.T) {
	checkIn, _ := ParseDate("2024-03-09")
	checkOut, _ := ParseDate("2024-03-11")
	assert.Equal(t, 2, Nights(checkIn.Add(20*time.Hour), checkOut.Add(time.Hour)))
}

func TestRangesOverlap(t *testing.T) {
	d := func(s string) time.Time { v, _ := ParseDate(s); return v }

	assert.True(t, RangesOverlap(d("2024-07-15"), d("2024-07-18"), d("2024-07-17"), d("2024-07-20")))
	assert.False(t, RangesOverlap(d("2024-07-15"), d("2024-07-18"), d("2024-07-18"), d("2024-07-20")))
	assert.False(t, RangesOverlap(d("2024-07-18"), d("2024-07-20"), d("2024-07-15"), d("2024-07-18")))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 157.38, Round2(157.3775))
	assert.Equal(t, 10.0, Round2(9.999))
	assert.Equal(t, 0.0, Round2(0.004))
}
