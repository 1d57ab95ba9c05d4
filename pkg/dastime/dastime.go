// Package dastime converts the timestamp representations found in DAS
// containers into UTC instants: ISO8601 strings (offset-aware or naive),
// numeric epochs at an explicitly declared scale, and decomposed calendar
// fields. The epoch scale is always a per-schema constant supplied by the
// caller, never inferred from the magnitude of the value.
package dastime

import (
	"math"
	"time"

	"github.com/stratoseis/dasio/pkg/errors"
)

// Scale identifies the unit of a numeric epoch value.
type Scale int

const (
	// Seconds since the Unix epoch.
	Seconds Scale = iota
	// Microseconds since the Unix epoch.
	Microseconds
)

func (s Scale) String() string {
	switch s {
	case Seconds:
		return "seconds"
	case Microseconds:
		return "microseconds"
	default:
		return "unknown"
	}
}

// Layouts accepted for offset-carrying ISO8601 strings. Python's %z accepts
// colon, compact and Z forms, so all three are tried.
var offsetLayouts = []string{
	"2006-01-02T15:04:05.999999-07:00",
	"2006-01-02T15:04:05.999999-0700",
	"2006-01-02T15:04:05.999999Z07:00",
}

const naiveLayout = "2006-01-02T15:04:05.999999"

// FromEpoch converts a numeric epoch value at the given scale into a UTC
// instant.
func FromEpoch(v float64, scale Scale) time.Time {
	var ns float64
	switch scale {
	case Microseconds:
		ns = v * 1e3
	default:
		ns = v * 1e9
	}
	return time.Unix(0, int64(math.Round(ns))).UTC()
}

// ParseOffset parses an ISO8601 string that carries an explicit UTC offset.
// The encoded offset is preserved in the returned instant's location.
func ParseOffset(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range offsetLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, errors.Wrapf(lastErr, errors.ErrorTypeMalformedContainer,
		"timestamp %q has no recognizable UTC offset form", s)
}

// ParseNaive parses a naive ISO8601 string, assuming UTC.
func ParseNaive(s string) (time.Time, error) {
	t, err := time.Parse(naiveLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"timestamp %q is not a naive ISO8601 form", s)
	}
	return t.UTC(), nil
}

// ParseISO parses an ISO8601 string of either form: offset-aware strings
// keep their encoded offset, naive strings are assumed UTC.
func ParseISO(s string) (time.Time, error) {
	if t, err := ParseOffset(s); err == nil {
		return t, nil
	}
	return ParseNaive(s)
}

// FromDate builds a UTC instant from decomposed calendar fields.
func FromDate(year int, month time.Month, day, hour, min, sec, nsec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, nsec, time.UTC)
}

var epochZero = time.Unix(0, 0).UTC()

// EpochZero returns the sentinel instant that marks an undetermined start
// time.
func EpochZero() time.Time {
	return epochZero
}

// IsEpochZero reports whether t is the undetermined-start-time sentinel.
func IsEpochZero(t time.Time) bool {
	return t.Equal(epochZero)
}
