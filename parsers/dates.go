package parsers

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/document"
)

// DefaultZone is the zone of the filing offices; source datetimes without an
// offset are wall-clock times there.
const DefaultZone = "America/New_York"

// DefaultLocation loads DefaultZone, falling back to UTC.
func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"Jan 2, 2006 3:04 PM",
	"January 2, 2006 3:04 PM",
}

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"1-2-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"20060102",
}

// ParseDateTime parses s into a zone-aware instant. Inputs without a zone are
// read in loc. A date-only input yields a formskema.Date.
func ParseDateTime(s string, loc *time.Location) (any, error) {
	s = strings.ToUpper(CleanText(s))
	if s == "" {
		return nil, nil
	}
	for _, l := range zonedLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	for _, l := range localLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, nil
		}
	}
	if d, ok := parseDateOnly(s); ok {
		return d, nil
	}
	return nil, fmt.Errorf("unrecognized datetime %q", s)
}

// ParseDate parses s into a calendar date. Datetime inputs are truncated to
// their date in loc.
func ParseDate(s string, loc *time.Location) (any, error) {
	s = strings.ToUpper(CleanText(s))
	if s == "" {
		return nil, nil
	}
	if d, ok := parseDateOnly(s); ok {
		return d, nil
	}
	v, err := ParseDateTime(s, loc)
	if err != nil {
		return nil, fmt.Errorf("unrecognized date %q", s)
	}
	if t, ok := v.(time.Time); ok {
		return formskema.DateOf(t.In(loc)), nil
	}
	return v, nil
}

func parseDateOnly(s string) (formskema.Date, bool) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return formskema.DateOf(t), true
		}
	}
	return formskema.Date{}, false
}

func dateFunc(loc *time.Location) Func {
	return func(n document.Node) (any, error) {
		if n == nil {
			return nil, nil
		}
		return ParseDate(n.Text(), loc)
	}
}

func dateTimeFunc(loc *time.Location) Func {
	return func(n document.Node) (any, error) {
		if n == nil {
			return nil, nil
		}
		return ParseDateTime(n.Text(), loc)
	}
}
