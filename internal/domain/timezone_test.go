package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalClockRoundTrip(t *testing.T) {
	loc, err := OrgLocation("America/Chicago")
	require.NoError(t, err)

	// A date and start time entered in the org's timezone must render
	// back identically after a store/load cycle through UTC.
	stored, err := ParseLocalClock("2026-02-06", "15:45", loc)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, stored.Location())

	assert.Equal(t, "2026-02-06", FormatLocalDate(stored, loc))
	assert.Equal(t, "15:45", FormatLocalClock(stored, loc))
}

func TestLocalClockRoundTripAcrossUTCDateBoundary(t *testing.T) {
	loc, err := OrgLocation("America/Chicago")
	require.NoError(t, err)

	// 23:30 local is the next day in UTC; rendering must still give
	// back the entered local date.
	stored, err := ParseLocalClock("2026-02-06", "23:30", loc)
	require.NoError(t, err)

	assert.Equal(t, "2026-02-06", FormatLocalDate(stored, loc))
	assert.Equal(t, "23:30", FormatLocalClock(stored, loc))
}

func TestParseLocalDate(t *testing.T) {
	loc, err := OrgLocation("America/New_York")
	require.NoError(t, err)

	d, err := ParseLocalDate("2026-07-04", loc)
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.July, d.Month())
	assert.Equal(t, 4, d.Day())

	_, err = ParseLocalDate("07/04/2026", loc)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrgLocationRejectsUnknownZone(t *testing.T) {
	_, err := OrgLocation("Mars/Olympus_Mons")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseLocalClockRejectsBadClock(t *testing.T) {
	loc, _ := OrgLocation("UTC")
	_, err := ParseLocalClock("2026-02-06", "25:99", loc)
	assert.ErrorIs(t, err, ErrValidation)
}
