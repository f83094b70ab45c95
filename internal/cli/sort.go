package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/spbu-timetable/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByPage  SortOrder = "page"
	SortByStart SortOrder = "start"
	SortByTitle SortOrder = "title"
	SortByType  SortOrder = "type"
)

// sortEvents sorts events in place. Ties keep page order, and SortByPage
// leaves the slice untouched.
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByStart:
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Start.Before(events[j].Start)
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			return events[i].Start.Before(events[j].Start)
		})
	case SortByType:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Type), strings.ToLower(events[j].Type)
			if ti != tj {
				return ti < tj
			}
			return events[i].Start.Before(events[j].Start)
		})
	}
}
