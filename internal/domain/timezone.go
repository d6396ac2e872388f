package domain

import (
	"fmt"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// OrgLocation resolves an organization's fixed IANA timezone name.
func OrgLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrValidation, name)
	}
	return loc, nil
}

// ParseLocalDate interprets a YYYY-MM-DD string in the organization's
// timezone and returns the instant at local midnight.
func ParseLocalDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return t, nil
}

// ParseLocalClock combines a YYYY-MM-DD date and an HH:MM clock time
// in the organization's timezone into one absolute instant. Entry
// happens in org-local wall time; storage is always UTC.
func ParseLocalClock(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time must be HH:MM", ErrValidation)
	}
	return t.UTC(), nil
}

// FormatLocalDate renders a stored instant back as the organization's
// local date for display and editing.
func FormatLocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// FormatLocalClock renders a stored instant back as the
// organization's local wall clock.
func FormatLocalClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(clockLayout)
}
