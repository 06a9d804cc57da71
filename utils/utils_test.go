package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Employee@123", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "Employee@123", hash)
	assert.True(t, CheckPassword(hash, "Employee@123"))
	assert.False(t, CheckPassword(hash, "employee@123"))
	assert.False(t, CheckPassword("not-a-hash", "Employee@123"))
}

func TestDateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	ts := time.Date(2024, 3, 1, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-01", DateOf(ts, time.UTC))
	assert.Equal(t, "2024-03-02", DateOf(ts, loc))
}

func TestPreviousDate(t *testing.T) {
	assert.Equal(t, "2024-02-29", PreviousDate(time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, "2023-12-31", PreviousDate(time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC), time.UTC))
}

func TestHoursBetween(t *testing.T) {
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 8.5, HoursBetween(in, in.Add(8*time.Hour+30*time.Minute)))
	assert.Equal(t, 0.33, HoursBetween(in, in.Add(20*time.Minute)))
}

func TestNextDailyRun(t *testing.T) {
	before := time.Date(2024, 3, 1, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC), NextDailyRun(before, time.UTC, 0, 5))

	after := time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 5, 0, 0, time.UTC), NextDailyRun(after, time.UTC, 0, 5))
}
