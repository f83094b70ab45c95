// Package event provides the schedule event record and the locale helpers used to build it.
//
// An Event is one class slot taken from a timetable page: its absolute start and end,
// a countdown label relative to the moment of extraction, and the normalized subject,
// venue and lecturer text. Each event is assigned a deterministic SHA1-based ID from its
// start time and subject so repeated runs over the same page produce identical records.
package event
