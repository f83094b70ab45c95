package scraper

import (
	"errors"
	"strings"
)

// Title attributes the timetable uses to label lesson fields.
const (
	titleAdded            = "Добавлено занятие"
	titleTimeChanged      = "Заменены дата/время"
	titleTime             = "Время"
	titleSubject          = "Предмет"
	titleVenue            = "Места проведения занятия"
	titleVenueChanged     = "Заменены места проведения занятия"
	titleLecturers        = "Преподаватели"
	titleLecturersChanged = "Заменены преподаватели"

	classCancelled = "cancelled"
	classMoreInfo  = "moreinfo"
)

// Venue labels collapsed by NormalizeLocation.
const (
	venueOnline        = "С использованием информационно-коммуникационных технологий"
	venueOnlineLabel   = "Онлайн"
	venueMathMechPM    = "Университетский проспект, д. 35"
	venueMathMechPMTag = "ПМ "
	venueMathMechMM    = "Университетский проспект, д. 28"
	venueMathMechMMTag = "ММ "
)

// timeRangeSeparator splits "10:00–11:35" into start and end.
const timeRangeSeparator = "–"

// fieldRule is one entry of a priority-ordered lookup: the first rule whose
// match reports true supplies the value.
type fieldRule[T any] struct {
	name    string
	match   func(lesson Node) bool
	extract func(lesson Node) (T, error)
}

// firstMatch returns the value of the first matching rule and that rule's name.
// The name is empty when no rule matched.
func firstMatch[T any](lesson Node, rules []fieldRule[T]) (T, string, error) {
	for _, r := range rules {
		if r.match(lesson) {
			v, err := r.extract(lesson)
			return v, r.name, err
		}
	}
	var zero T
	return zero, "", nil
}

func has(tag, title string) func(Node) bool {
	return func(lesson Node) bool {
		_, ok := lesson.FindFirst(tag, Filter{Title: title})
		return ok
	}
}

func lacks(tag, title string) func(Node) bool {
	present := has(tag, title)
	return func(lesson Node) bool {
		return !present(lesson)
	}
}

func all(preds ...func(Node) bool) func(Node) bool {
	return func(lesson Node) bool {
		for _, p := range preds {
			if !p(lesson) {
				return false
			}
		}
		return true
	}
}

// errFieldMissing and errFieldFormat are placed in context by extractLesson.
var (
	errFieldMissing = errors.New("field missing")
	errFieldFormat  = errors.New("field malformed")
)

type fieldError struct {
	kind  error
	field string
	value string
}

func (e *fieldError) Error() string {
	return e.field + ": " + e.kind.Error()
}

func (e *fieldError) Unwrap() error {
	return e.kind
}

func missing(field string) error {
	return &fieldError{kind: errFieldMissing, field: field}
}

func malformed(field, value string) error {
	return &fieldError{kind: errFieldFormat, field: field, value: value}
}

func trimmedText(n Node) string {
	return strings.TrimSpace(n.Text())
}

// timeMatch is the raw time text and whether it came from an added-lesson label.
type timeMatch struct {
	text  string
	added bool
}

func timeFrom(title string, added bool) func(Node) (timeMatch, error) {
	return func(lesson Node) (timeMatch, error) {
		span, _ := lesson.FindFirst("span", Filter{Title: title})
		return timeMatch{text: trimmedText(span), added: added}, nil
	}
}

var timeRules = []fieldRule[timeMatch]{
	{name: "added", match: has("span", titleAdded), extract: timeFrom(titleAdded, true)},
	{name: "rescheduled", match: has("span", titleTimeChanged), extract: timeFrom(titleTimeChanged, false)},
	{name: "regular", match: has("span", titleTime), extract: timeFrom(titleTime, false)},
}

// splitTimeRange splits time text on the en dash. Without one the event is open-ended
// and both halves are the whole text.
func splitTimeRange(text string) (string, string) {
	if !strings.Contains(text, timeRangeSeparator) {
		return text, text
	}
	parts := strings.Split(text, timeRangeSeparator)
	return parts[0], parts[1]
}

// subjectText returns the "title, type" string of a lesson. Added lessons repeat the
// added-lesson label, the second occurrence carrying the subject.
func subjectText(lesson Node, added bool) (string, error) {
	if added {
		spans := lesson.FindAll("span", Filter{Title: titleAdded})
		if len(spans) < 2 {
			return "", missing("subject")
		}
		return trimmedText(spans[1]), nil
	}

	span, ok := lesson.FindFirst("span", Filter{Title: titleSubject})
	if !ok {
		return "", missing("subject")
	}
	return trimmedText(span), nil
}

// splitSubject splits "Алгебра, лекция" into title and type.
func splitSubject(subject string) (title, typ string, err error) {
	parts := strings.Split(subject, ",")
	if len(parts) < 2 {
		return "", "", malformed("subject", subject)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func venueBlock(title string) func(Node) (string, error) {
	return func(lesson Node) (string, error) {
		div, _ := lesson.FindFirst("div", Filter{Title: title})
		span, ok := div.FindFirst("span", Filter{})
		if !ok {
			return "", missing("location")
		}
		return trimmedText(span), nil
	}
}

var locationRules = []fieldRule[string]{
	{
		name:    "venue",
		match:   all(lacks("div", titleVenueChanged), has("div", titleVenue)),
		extract: venueBlock(titleVenue),
	},
	{
		name:    "changed-venue",
		match:   has("div", titleVenueChanged),
		extract: venueBlock(titleVenueChanged),
	},
	{
		name:  "inline-venue",
		match: has("span", titleVenue),
		extract: func(lesson Node) (string, error) {
			span, _ := lesson.FindFirst("span", Filter{Title: titleVenue})
			return trimmedText(span), nil
		},
	},
}

// NormalizeLocation shortens the venue labels the timetable repeats on every lesson.
func NormalizeLocation(raw string) string {
	switch {
	case raw == venueOnline:
		return venueOnlineLabel
	case strings.Contains(raw, venueMathMechPM):
		return venueMathMechPMTag + lastSegment(raw)
	case strings.Contains(raw, venueMathMechMM):
		return venueMathMechMMTag + lastSegment(raw)
	default:
		return raw
	}
}

// lastSegment returns the text after the last comma, leading space included.
func lastSegment(s string) string {
	return s[strings.LastIndex(s, ",")+1:]
}

func lecturerSpans(lesson Node) []Node {
	return lesson.FindAll("span", Filter{Title: titleLecturers})
}

func firstLecturerIsString(lesson Node) bool {
	spans := lecturerSpans(lesson)
	if len(spans) == 0 {
		return false
	}
	_, ok := spans[0].SingleString()
	return ok
}

// hasMoreInfo reports whether the first lecturer element names an organisation
// rather than a person.
func hasMoreInfo(lesson Node) bool {
	spans := lecturerSpans(lesson)
	if len(spans) == 0 {
		return false
	}
	_, ok := spans[0].FindFirst("span", Filter{Class: classMoreInfo})
	return ok
}

// linkNames collects the link text of each span. Spans without a link are skipped.
func linkNames(spans []Node) []string {
	var names []string
	for _, s := range spans {
		if a, ok := s.FindFirst("a", Filter{}); ok {
			if name := trimmedText(a); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

var lecturerRules = []fieldRule[[]string]{
	{
		name:  "named",
		match: firstLecturerIsString,
		extract: func(lesson Node) ([]string, error) {
			return linkNames(lecturerSpans(lesson)), nil
		},
	},
	{
		name:  "organisation",
		match: hasMoreInfo,
		extract: func(lesson Node) ([]string, error) {
			info, _ := lecturerSpans(lesson)[0].FindFirst("span", Filter{Class: classMoreInfo})
			return []string{trimmedText(info)}, nil
		},
	},
	{
		name:  "first-link",
		match: has("span", titleLecturers),
		extract: func(lesson Node) ([]string, error) {
			return linkNames(lecturerSpans(lesson)[:1]), nil
		},
	},
	{
		name:  "changed",
		match: has("span", titleLecturersChanged),
		extract: func(lesson Node) ([]string, error) {
			return linkNames(lesson.FindAll("span", Filter{Title: titleLecturersChanged})[:1]), nil
		},
	},
}

// joinLecturers joins non-empty names with ", ".
func joinLecturers(names []string) string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, ", ")
}
