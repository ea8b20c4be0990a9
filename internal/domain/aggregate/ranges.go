package aggregate

import (
	"strings"
	"time"
)

// Quick date-range presets.
const (
	RangeLast7   = "last7"
	RangeLast30  = "last30"
	RangeQuarter = "quarter"
	RangeYear    = "year"
	RangeClear   = "clear"
)

// RangePresets lists the accepted preset names.
var RangePresets = []string{RangeLast7, RangeLast30, RangeQuarter, RangeYear, RangeClear}

// rangeAliases maps the dashboard's Portuguese preset names.
var rangeAliases = map[string]string{
	"ultimos7":  RangeLast7,
	"ultimos30": RangeLast30,
	"trimestre": RangeQuarter,
	"ano":       RangeYear,
	"limpar":    RangeClear,
}

const isoDay = "2006-01-02"

// QuickRange resolves a preset to inclusive YYYY-MM-DD bounds ending on the
// calendar day of now. RangeClear yields empty bounds. ok is false for an
// unknown preset.
func QuickRange(preset string, now time.Time) (from, to string, ok bool) {
	p := strings.ToLower(strings.TrimSpace(preset))
	if alias, found := rangeAliases[p]; found {
		p = alias
	}

	today := now.Format(isoDay)
	switch p {
	case RangeLast7:
		return now.AddDate(0, 0, -7).Format(isoDay), today, true
	case RangeLast30:
		return now.AddDate(0, 0, -30).Format(isoDay), today, true
	case RangeQuarter:
		first := time.Month((int(now.Month())-1)/3*3 + 1)
		return time.Date(now.Year(), first, 1, 0, 0, 0, 0, now.Location()).Format(isoDay), today, true
	case RangeYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()).Format(isoDay), today, true
	case RangeClear:
		return "", "", true
	default:
		return "", "", false
	}
}

// WithRange returns f with its date bounds set from preset. Bounds already
// present on f win over the preset.
func (f Filter) WithRange(preset string, now time.Time) (Filter, bool) {
	from, to, ok := QuickRange(preset, now)
	if !ok {
		return f, false
	}
	if f.DateFrom == "" {
		f.DateFrom = from
	}
	if f.DateTo == "" {
		f.DateTo = to
	}
	return f, true
}
