// Package scraper fetches SPbU timetable pages and extracts the week's classes from them.
//
// Fetching is a single GET with the "_culture=ru" cookie so the page renders Russian
// labels, optionally without TLS certificate verification. Extraction walks the page
// through the Node interface: each day block of the div.panel-group week container
// yields its lessons, cancelled lessons are skipped, and substituted or added lessons
// take their time, venue and lecturers from the changed-field labels. Field lookups are
// ordered rule lists where the first matching rule wins.
package scraper
