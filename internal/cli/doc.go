// Package cli implements the command-line interface for spbu-timetable.
//
// The cli package provides the Cobra-based command that fetches one group's weekly
// timetable page, extracts its classes and prints them as a table, JSON or an iCalendar
// feed. It coordinates the config, scraper, filter and calendar packages.
package cli
