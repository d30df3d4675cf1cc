package participation

import (
	"strings"
	"time"
)

// Layouts accepted for meeting dates, tried in order.
var meetingDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// meetingDate is a sort key for meeting dates. Parsed dates order
// chronologically and always before unparsed ones, which fall back to
// plain string order.
type meetingDate struct {
	raw    string
	t      time.Time
	parsed bool
}

func parseMeetingDate(raw string) meetingDate {
	s := strings.TrimSpace(raw)
	for _, layout := range meetingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return meetingDate{raw: raw, t: t, parsed: true}
		}
	}
	return meetingDate{raw: raw}
}

// after reports whether d sorts before o in newest-first order.
func (d meetingDate) after(o meetingDate) bool {
	switch {
	case d.parsed && o.parsed:
		return d.t.After(o.t)
	case d.parsed != o.parsed:
		return d.parsed
	default:
		return d.raw > o.raw
	}
}

// laterDate reports whether a is strictly newer than b.
func laterDate(a, b string) bool {
	return parseMeetingDate(a).after(parseMeetingDate(b))
}
