package scraper

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/spbu-timetable/internal/event"
	"github.com/pfrederiksen/spbu-timetable/internal/logger"
)

// ExtractContext is the per-run input to extraction besides the page itself.
type ExtractContext struct {
	Now      time.Time      // Reference time for countdown labels
	Location *time.Location // Zone of the page's wall-clock times
}

// Schedule is one week of a group's timetable.
type Schedule struct {
	WeekStart string         `json:"week_start"` // data-weekmonday of the week anchor
	Events    []*event.Event `json:"events"`
}

// ParseSchedule parses HTML and extracts the week's events.
func ParseSchedule(r io.Reader, ec ExtractContext) (*Schedule, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return Extract(NewNode(doc.Selection), ec)
}

// Extract walks a timetable page and returns its events in page order.
// Cancelled lessons are skipped; any other malformed lesson aborts extraction.
func Extract(root Node, ec ExtractContext) (*Schedule, error) {
	loc := ec.Location
	if loc == nil {
		loc = time.UTC
	}

	week, ok := root.FindFirst("div", Filter{Class: "panel-group"})
	if !ok {
		return nil, &StructureError{Reason: "no div.panel-group week container"}
	}

	anchor, ok := root.FindFirst("a", Filter{ID: "week"})
	if !ok {
		return nil, &StructureError{Reason: "no a#week anchor"}
	}
	weekStart, ok := anchor.Attr("data-weekmonday")
	if !ok {
		return nil, &StructureError{Reason: "a#week has no data-weekmonday attribute"}
	}

	monday, _ := event.ParseWeekStart(weekStart, loc)
	dc := event.DateContext{WeekStart: monday, Now: ec.Now, Location: loc}

	schedule := &Schedule{
		WeekStart: weekStart,
		Events:    make([]*event.Event, 0),
	}

	for _, block := range week.Children() {
		if block.IsBlank() {
			continue
		}
		if !block.IsElement() {
			return nil, &StructureError{Reason: fmt.Sprintf("unexpected text %q in week container", trimmedText(block))}
		}

		day, lessons, err := dayBlock(block)
		if err != nil {
			return nil, err
		}
		logger.IncrCounter("days.parsed")

		index := 0
		for _, lesson := range lessons {
			if lesson.IsBlank() {
				continue
			}
			index++
			if !lesson.IsElement() {
				return nil, &StructureError{Day: day, Reason: fmt.Sprintf("unexpected text %q in lesson list", trimmedText(lesson))}
			}

			if _, cancelled := lesson.FindFirst("span", Filter{Class: classCancelled}); cancelled {
				logger.IncrCounter("lessons.cancelled")
				logger.Debug("Skipping cancelled lesson", logger.Fields{"day": day, "lesson": index})
				continue
			}

			evt, err := extractLesson(lesson, day, dc, ec.Now)
			if err != nil {
				return nil, annotate(err, day, index)
			}
			logger.IncrCounter("lessons.extracted")
			schedule.Events = append(schedule.Events, evt)
		}
	}

	return schedule, nil
}

// dayBlock splits a day element into its heading label and lesson nodes.
// The first element child holds the h4 heading, the second the lesson list.
func dayBlock(block Node) (string, []Node, error) {
	var parts []Node
	for _, child := range block.Children() {
		if child.IsElement() {
			parts = append(parts, child)
		}
	}
	if len(parts) < 2 {
		return "", nil, &StructureError{Reason: "day block without heading and lesson list"}
	}

	heading, ok := parts[0].FindFirst("h4", Filter{})
	if !ok {
		return "", nil, &StructureError{Reason: "day block without h4 heading"}
	}
	day := trimmedText(heading)
	if day == "" {
		return "", nil, &StructureError{Reason: "day block with empty heading"}
	}

	return day, parts[1].Children(), nil
}

func extractLesson(lesson Node, day string, dc event.DateContext, now time.Time) (*event.Event, error) {
	tm, rule, err := firstMatch(lesson, timeRules)
	if err != nil {
		return nil, err
	}
	if rule == "" {
		return nil, missing("time")
	}

	startText, endText := splitTimeRange(tm.text)
	start, err := event.ParseDateTime(day+" "+startText, dc)
	if err != nil {
		return nil, &TimeParseError{Text: tm.text, Err: err}
	}
	end, err := event.ParseDateTime(day+" "+endText, dc)
	if err != nil {
		return nil, &TimeParseError{Text: tm.text, Err: err}
	}

	subject, err := subjectText(lesson, tm.added)
	if err != nil {
		return nil, err
	}
	title, typ, err := splitSubject(subject)
	if err != nil {
		return nil, err
	}

	rawLocation, rule, err := firstMatch(lesson, locationRules)
	if err != nil {
		return nil, err
	}
	if rule == "" {
		return nil, missing("location")
	}

	names, rule, err := firstMatch(lesson, lecturerRules)
	if err != nil {
		return nil, err
	}
	lecturers := joinLecturers(names)
	if rule == "" || lecturers == "" {
		return nil, missing("lecturers")
	}

	return event.NewEvent(day, start, end, typ, title, NormalizeLocation(rawLocation), lecturers, now), nil
}

// annotate converts lesson-level errors into the exported error types with position.
func annotate(err error, day string, lesson int) error {
	var tpe *TimeParseError
	if errors.As(err, &tpe) {
		tpe.Day, tpe.Lesson = day, lesson
		return tpe
	}

	var fe *fieldError
	if errors.As(err, &fe) {
		if errors.Is(fe.kind, errFieldFormat) {
			return &FieldFormatError{Day: day, Lesson: lesson, Field: fe.field, Value: fe.value}
		}
		return &FieldMissingError{Day: day, Lesson: lesson, Field: fe.field}
	}

	return fmt.Errorf("%s: %w", position(day, lesson), err)
}
