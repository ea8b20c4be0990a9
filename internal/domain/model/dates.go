package model

import (
	"math"
	"strings"
	"time"
)

// Date layouts found in the source data.
const (
	ISODateLayout = "2006-01-02"
	BRDateLayout  = "02/01/2006"
)

// ToISODate normalises DD/MM/YYYY or YYYY-MM-DD into YYYY-MM-DD.
// Anything else yields "".
func ToISODate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, err := time.Parse(ISODateLayout, s); err == nil {
		return t.Format(ISODateLayout)
	}
	if t, err := time.Parse(BRDateLayout, s); err == nil {
		return t.Format(ISODateLayout)
	}
	return ""
}

// ParseISODate parses a YYYY-MM-DD date in UTC.
func ParseISODate(s string) (time.Time, bool) {
	t, err := time.Parse(ISODateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DurationDays returns ceil((end-start)/day) for two ISO dates, clamped at
// zero. ok is false when either date is missing or unparseable.
func DurationDays(start, end string) (days int, ok bool) {
	s, okStart := ParseISODate(start)
	e, okEnd := ParseISODate(end)
	if !okStart || !okEnd {
		return 0, false
	}
	d := int(math.Ceil(e.Sub(s).Hours() / 24))
	if d < 0 {
		d = 0
	}
	return d, true
}

// Today returns the current date as YYYY-MM-DD.
func Today(now time.Time) string {
	return now.UTC().Format(ISODateLayout)
}
