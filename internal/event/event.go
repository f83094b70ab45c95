package event

import (
	"crypto/sha1"
	"fmt"
	"time"
)

// PassedLabel is the countdown label for events that already started.
const PassedLabel = "passed"

// Event represents a single class from a weekly timetable
type Event struct {
	ID          string    `json:"id"`
	Day         string    `json:"day"` // Day heading as shown on the page
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	TimeToEvent string    `json:"time_to_event"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Lecturers   string    `json:"lecturers"`
}

// GenerateID creates a deterministic ID for an event based on stable fields
func GenerateID(start time.Time, title, typ, location string) string {
	h := sha1.New()
	h.Write([]byte(start.UTC().Format(time.RFC3339) + "|" + title + "|" + typ + "|" + location))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewEvent creates a new Event with ID and TimeToEvent populated.
// now is the reference time the countdown is computed against.
func NewEvent(day string, start, end time.Time, typ, title, location, lecturers string, now time.Time) *Event {
	return &Event{
		ID:          GenerateID(start, title, typ, location),
		Day:         day,
		Start:       start,
		End:         end,
		TimeToEvent: TimeToEvent(start, now),
		Type:        typ,
		Title:       title,
		Location:    location,
		Lecturers:   lecturers,
	}
}

// TimeToEvent formats the time left until start as "D:HH:MM".
// Returns PassedLabel when start is before now.
func TimeToEvent(start, now time.Time) string {
	delta := start.Sub(now)
	if delta < 0 {
		return PassedLabel
	}

	total := int64(delta / time.Second)
	days := total / 86400
	seconds := total % 86400
	hours := seconds / 3600
	minutes := seconds / 60 % 60

	return fmt.Sprintf("%d:%02d:%02d", days, hours, minutes)
}

// IsUpcoming reports whether the event starts at or after now.
func (e *Event) IsUpcoming(now time.Time) bool {
	return !e.Start.Before(now)
}
