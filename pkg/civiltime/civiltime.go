package civiltime

import (
	"time"

	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format for wall-clock times.
	ClockLayout = "15:04"
)

// Zone interprets user-facing date/time strings in a fixed civil timezone.
// Persisted instants are UTC; every boundary crossing goes through here.
type Zone struct {
	loc *time.Location
}

// LoadZone resolves an IANA timezone name into a Zone.
func LoadZone(name string) (*Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unknown timezone "+name)
	}
	return &Zone{loc: loc}, nil
}

// MustLoadZone is LoadZone for static zone names.
func MustLoadZone(name string) *Zone {
	z, err := LoadZone(name)
	if err != nil {
		panic(err)
	}
	return z
}

// Location exposes the underlying *time.Location.
func (z *Zone) Location() *time.Location {
	return z.loc
}

// ParseClock validates a zero-padded HH:MM string and returns its minute
// offset from midnight.
func ParseClock(clock string) (int, error) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, appErrors.Clone(appErrors.ErrInvalidTime, "")
	}
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInvalidTime.Code, appErrors.ErrInvalidTime.Status, appErrors.ErrInvalidTime.Message)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseDate validates a YYYY-MM-DD string and returns midnight of that day
// in the civil zone.
func (z *Zone) ParseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, z.loc)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidDate.Code, appErrors.ErrInvalidDate.Status, appErrors.ErrInvalidDate.Message)
	}
	return d, nil
}

// ToAbsolute converts a (date, HH:MM) pair into the UTC instant it denotes.
func (z *Zone) ToAbsolute(date, clock string) (time.Time, error) {
	day, err := z.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	local := time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, z.loc)
	return local.UTC(), nil
}

// ToLocal projects an instant back into the civil zone's (date, HH:MM) pair.
// It is the exact inverse of ToAbsolute for instants that function produced.
func (z *Zone) ToLocal(t time.Time) (string, string) {
	local := t.In(z.loc)
	return local.Format(DateLayout), local.Format(ClockLayout)
}

// In returns the instant expressed in the civil zone.
func (z *Zone) In(t time.Time) time.Time {
	return t.In(z.loc)
}

// MinutesOfDay returns an instant's minute offset from local midnight.
func (z *Zone) MinutesOfDay(t time.Time) int {
	local := t.In(z.loc)
	return local.Hour()*60 + local.Minute()
}
