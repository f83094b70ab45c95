// Package calendar exports timetable events as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/pfrederiksen/spbu-timetable/internal/event"
)

const (
	ProductID = "-//spbu-timetable//spbu-timetable//RU"
	uidDomain = "timetable.spbu.ru"
)

// Feed describes the calendar a week is exported into.
type Feed struct {
	Name      string    // Calendar display name
	SourceURL string    // Timetable page the events came from
	Stamp     time.Time // DTSTAMP of every event
}

// WriteICS writes one VEVENT per event to w.
func WriteICS(w io.Writer, events []*event.Event, feed Feed) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	if feed.Name != "" {
		cal.SetName(feed.Name)
		cal.SetXWRCalName(feed.Name)
	}

	stamp := feed.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, evt := range events {
		ve := cal.AddEvent(fmt.Sprintf("%s@%s", evt.ID, uidDomain))
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(evt.Start)
		ve.SetEndAt(evt.End)
		ve.SetSummary(Summary(evt))
		ve.SetLocation(evt.Location)
		ve.SetDescription(Description(evt))
		ve.SetStatus(ics.ObjectStatusConfirmed)
		ve.SetTimeTransparency(ics.TransparencyOpaque)
		if feed.SourceURL != "" {
			ve.SetURL(feed.SourceURL)
		}
	}

	return cal.SerializeTo(w)
}

// Summary is the calendar title of an event, e.g. "Алгебра (лекция)".
func Summary(evt *event.Event) string {
	if evt.Type == "" {
		return evt.Title
	}
	return fmt.Sprintf("%s (%s)", evt.Title, evt.Type)
}

// Description lists the details not carried by other iCalendar properties.
func Description(evt *event.Event) string {
	return fmt.Sprintf("%s\nПреподаватели: %s", evt.Day, evt.Lecturers)
}
