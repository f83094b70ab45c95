package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pfrederiksen/spbu-timetable/internal/calendar"
	"github.com/pfrederiksen/spbu-timetable/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// TimeLayout is how start and end are printed in the table.
const TimeLayout = "2006-01-02 15:04:05"

// Columns of the text report, in order.
var Columns = []string{"start", "D:H:M", "end", "type", "title", "location", "lecturers"}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// OutputResult contains data to be output
type OutputResult struct {
	WeekStart   string         `json:"week_start"`
	URL         string         `json:"url"`
	GeneratedAt time.Time      `json:"generated_at"`
	Events      []*event.Event `json:"events"`
	EventCount  int            `json:"event_count"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	case FormatICS:
		return calendar.WriteICS(w, result.Events, calendar.Feed{
			Name:      "Timetable " + result.WeekStart,
			SourceURL: result.URL,
			Stamp:     result.GeneratedAt,
		})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText prints the week as a table, or a hint to check the site when it is empty.
func writeText(w io.Writer, result *OutputResult) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found")
		fmt.Fprintln(w, "Check website to be sure:", result.URL)
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(Columns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, evt := range result.Events {
		t.Row(
			evt.Start.Format(TimeLayout),
			evt.TimeToEvent,
			evt.End.Format(TimeLayout),
			evt.Type,
			evt.Title,
			evt.Location,
			evt.Lecturers,
		)
	}

	fmt.Fprintln(w, "Timetable for 7 days starting", result.WeekStart)
	fmt.Fprintln(w, t.Render())
	return nil
}
