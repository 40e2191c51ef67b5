package generic

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is the zone the scheduling platform reports days in.
const DefaultTimezone = "Europe/London"

// DateLayout is the wire format of calendar dates (leave entries, query strings).
const DateLayout = "2006-01-02"

// =============================================================================
// TIME POINT - A calendar day
// =============================================================================

// TimePoint is a calendar day. The wall clock is always midnight UTC so two
// TimePoints for the same date compare equal regardless of how they were built.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day in loc.
func Today(loc *time.Location) TimePoint {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(time.Now().In(loc))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// IsValidDate reports whether (year, month, day) names a real calendar day.
// time.Date normalises overflow (Feb 30 becomes Mar 2) so the check is a round trip.
func IsValidDate(year int, month time.Month, day int) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && t.Month() == month && t.Day() == day
}

// LoadLocation resolves a zone name, defaulting to DefaultTimezone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string             { return tp.Time.Format(DateLayout) }
func (tp TimePoint) Format(layout string) string { return tp.Time.Format(layout) }

// =============================================================================
// LOCAL DAY BOUNDS - Unix seconds for upstream query windows
// =============================================================================

// StartUnix returns the Unix second of 00:00:00 on this day in loc.
func (tp TimePoint) StartUnix(loc *time.Location) int64 {
	return tp.at(loc, 0, 0, 0).Unix()
}

// EndUnix returns the Unix second of 23:59:59 on this day in loc.
func (tp TimePoint) EndUnix(loc *time.Location) int64 {
	return tp.at(loc, 23, 59, 59).Unix()
}

func (tp TimePoint) at(loc *time.Location, hour, min, sec int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(tp.Year(), tp.Month(), tp.Day(), hour, min, sec, 0, loc)
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns the whole days from -> to (negative when to is earlier).
func DaysBetween(from, to TimePoint) int { return int(to.Time.Sub(from.Time).Hours() / 24) }
