// Package filter narrows a week's events down to the ones a student asked for.
//
// Criteria combine with AND; values within one criterion combine with OR:
//   - Titles: subject name contains any value (case-insensitive)
//   - Types: class type contains any value, e.g. "лекция" (case-insensitive)
//   - Lecturers: lecturer list contains any value (case-insensitive)
//   - UpcomingOnly: events that have not started yet
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Types = []string{"лекция"}
//	f.UpcomingOnly = true
//	lectures := f.Apply(schedule.Events)
package filter

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/spbu-timetable/internal/event"
	"golang.org/x/text/cases"
)

// Filter represents event filtering criteria
type Filter struct {
	Titles       []string `json:"titles,omitempty"`
	Types        []string `json:"types,omitempty"`
	Lecturers    []string `json:"lecturers,omitempty"`
	UpcomingOnly bool     `json:"upcoming_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
func NewFilter() *Filter {
	return &Filter{
		Titles:    []string{},
		Types:     []string{},
		Lecturers: []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return len(f.Titles) == 0 &&
		len(f.Types) == 0 &&
		len(f.Lecturers) == 0 &&
		!f.UpcomingOnly
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events.
func (f *Filter) Matches(evt *event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	if f.UpcomingOnly && evt.TimeToEvent == event.PassedLabel {
		return false
	}

	return containsAny(evt.Title, f.Titles) &&
		containsAny(evt.Type, f.Types) &&
		containsAny(evt.Lecturers, f.Lecturers)
}

// Apply returns the events matching the filter, in their original order.
// If the filter is empty, returns the original slice unchanged.
func (f *Filter) Apply(events []*event.Event) []*event.Event {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "Titles: алгебра | Types: лекция | Upcoming only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if len(f.Titles) > 0 {
		parts = append(parts, fmt.Sprintf("Titles: %s", strings.Join(f.Titles, ", ")))
	}

	if len(f.Types) > 0 {
		parts = append(parts, fmt.Sprintf("Types: %s", strings.Join(f.Types, ", ")))
	}

	if len(f.Lecturers) > 0 {
		parts = append(parts, fmt.Sprintf("Lecturers: %s", strings.Join(f.Lecturers, ", ")))
	}

	if f.UpcomingOnly {
		parts = append(parts, "Upcoming only")
	}

	return strings.Join(parts, " | ")
}

// containsAny reports whether value contains one of needles, ignoring case.
// No needles means no restriction.
func containsAny(value string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}

	fold := cases.Fold()
	folded := fold.String(value)
	for _, n := range needles {
		if strings.Contains(folded, fold.String(strings.TrimSpace(n))) {
			return true
		}
	}
	return false
}
