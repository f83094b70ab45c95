package scraper

import "fmt"

// StructureError reports that the page lacks the containers a timetable page always has.
// It usually means the layout changed or the URL points at the wrong page.
type StructureError struct {
	Day    string // Day heading, empty for page-level problems
	Reason string
}

func (e *StructureError) Error() string {
	if e.Day != "" {
		return fmt.Sprintf("unexpected page structure in %q: %s", e.Day, e.Reason)
	}
	return fmt.Sprintf("unexpected page structure: %s", e.Reason)
}

// TimeParseError reports lesson time text that did not yield a date-time.
type TimeParseError struct {
	Day    string
	Lesson int
	Text   string
	Err    error
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("%s: parsing time %q: %v", position(e.Day, e.Lesson), e.Text, e.Err)
}

func (e *TimeParseError) Unwrap() error {
	return e.Err
}

// FieldFormatError reports a field present on the page but not in the expected shape.
type FieldFormatError struct {
	Day    string
	Lesson int
	Field  string
	Value  string
}

func (e *FieldFormatError) Error() string {
	return fmt.Sprintf("%s: malformed %s %q", position(e.Day, e.Lesson), e.Field, e.Value)
}

// FieldMissingError reports a lesson without a mandatory element and no fallback for it.
type FieldMissingError struct {
	Day    string
	Lesson int
	Field  string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("%s: missing %s", position(e.Day, e.Lesson), e.Field)
}

func position(day string, lesson int) string {
	return fmt.Sprintf("lesson %d of %q", lesson, day)
}
