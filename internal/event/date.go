package event

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	dateparser "github.com/markusmobius/go-dateparser"
)

// DateContext supplies what a day heading leaves out: the year and the time zone.
type DateContext struct {
	WeekStart time.Time      // Monday of the schedule week, zero if unknown
	Now       time.Time      // Reference time, used for the year when WeekStart is zero
	Location  *time.Location // Zone the page's wall-clock times are in
}

// explicitYear matches a four-digit year or the year part of a numeric date.
var explicitYear = regexp.MustCompile(`(^|[^\d:])\d{4}([^\d:]|$)|\d{1,2}\.\d{1,2}\.\d{2,4}`)

// ParseDateTime parses Russian date/time text as printed on timetable pages,
// e.g. "Понедельник, 3 марта 10:00" or "03.03.2025 11:50".
// A missing year is filled in by inferYear.
func ParseDateTime(text string, dc DateContext) (time.Time, error) {
	loc := dc.Location
	if loc == nil {
		loc = time.UTC
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date text")
	}

	cfg := &dateparser.Configuration{
		Languages:       []string{"ru"},
		DefaultTimezone: loc,
		CurrentTime:     referenceTime(dc, loc),
	}
	dt, err := dateparser.Parse(cfg, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %q: %w", text, err)
	}
	if dt.Time.IsZero() {
		return time.Time{}, fmt.Errorf("no date in %q", text)
	}

	parsed := dt.Time
	year := parsed.Year()
	if !explicitYear.MatchString(text) {
		year = inferYear(dc, parsed.Month(), parsed.Day(), loc)
	}

	t := time.Date(year, parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), parsed.Second(), 0, loc)
	if t.Day() != parsed.Day() {
		return time.Time{}, fmt.Errorf("invalid date %d-%02d-%02d in %q", year, parsed.Month(), parsed.Day(), text)
	}
	return t, nil
}

// ParseWeekStart parses the week's Monday label (e.g. "2025-03-03").
// Returns false if the label is not a plain date.
func ParseWeekStart(label string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	label = strings.TrimSpace(label)

	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05", "02.01.2006"} {
		if t, err := time.ParseInLocation(layout, label, loc); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// referenceTime is the parser's notion of "now": the week's Monday when known.
func referenceTime(dc DateContext, loc *time.Location) time.Time {
	if !dc.WeekStart.IsZero() {
		return dc.WeekStart.In(loc)
	}
	if !dc.Now.IsZero() {
		return dc.Now.In(loc)
	}
	return time.Now().In(loc)
}

// inferYear picks the year for a heading without one.
// A day earlier than the week's Monday belongs to the following year.
func inferYear(dc DateContext, month time.Month, day int, loc *time.Location) int {
	if !dc.WeekStart.IsZero() {
		year := dc.WeekStart.Year()
		candidate := time.Date(year, month, day, 0, 0, 0, 0, loc)
		if candidate.Before(dc.WeekStart.AddDate(0, 0, -1)) {
			return year + 1
		}
		return year
	}
	return referenceTime(dc, loc).Year()
}
