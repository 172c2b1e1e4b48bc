package custody

import (
	"strings"
	"time"
)

const (
	msgDateRequired = "La fecha es obligatoria"
	msgDateInvalid  = "La fecha no es válida"
	msgDateFuture   = "La fecha no puede ser mayor a hoy"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDay parses a form date and returns its calendar day in loc.
// Date-only values are taken as that day in loc, never shifted through UTC.
func ParseDay(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, value)
			if err == nil {
				t = t.In(loc)
			}
		} else {
			t, err = time.ParseInLocation(layout, value, loc)
		}
		if err == nil {
			return startOfDay(t), true
		}
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NotFuture checks that value is present, parses, and does not fall on a
// calendar day after now's. It returns the error message or "".
func NotFuture(value string, now time.Time) string {
	if strings.TrimSpace(value) == "" {
		return msgDateRequired
	}
	day, ok := ParseDay(value, now.Location())
	if !ok {
		return msgDateInvalid
	}
	if day.After(startOfDay(now)) {
		return msgDateFuture
	}
	return ""
}
