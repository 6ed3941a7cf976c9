// Package view computes display projections over collection snapshots.
// Everything here is a pure function of its inputs: no subscriptions, no
// writes, recomputed by the caller whenever a snapshot changes.
package view

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/eventflow-app/eventflow/internal/models"
)

// DateLayout is the fixed format event dates are entered in.
const DateLayout = "01/02/2006"

// upcomingWindow bounds the "is upcoming" display emphasis.
const upcomingWindow = 3 * 24 * time.Hour

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ParseEventDate parses an event date. Unparsable dates fall back to now
// rather than failing, so a malformed entry sorts as if it were today.
func ParseEventDate(date string, now time.Time) time.Time {
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return now
	}
	return parsed
}

// Events flattens a snapshot into a slice for projection.
func Events(snapshot map[string]models.Event) []models.Event {
	out := make([]models.Event, 0, len(snapshot))
	for _, event := range snapshot {
		out = append(out, event)
	}
	return out
}

// SortByDate returns the events ordered by parsed date, earliest first.
// The input is not mutated. Ties break by id so the order is stable across
// recomputations.
func SortByDate(events []models.Event, now time.Time) []models.Event {
	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		di := ParseEventDate(sorted[i].Date, now)
		dj := ParseEventDate(sorted[j].Date, now)
		if di.Equal(dj) {
			return sorted[i].ID < sorted[j].ID
		}
		return di.Before(dj)
	})
	return sorted
}

// TakeSoonest returns the n earliest events by date. The dashboard shows
// the soonest five.
func TakeSoonest(events []models.Event, n int, now time.Time) []models.Event {
	sorted := SortByDate(events, now)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// IsUpcoming reports whether the date falls strictly after now and within
// the next three days. Display emphasis only; never a write-path decision.
func IsUpcoming(date string, now time.Time) bool {
	eventDate := ParseEventDate(date, now)
	return eventDate.After(now) && eventDate.Before(now.Add(upcomingWindow))
}

// ClosestEventLabel describes how far away the nearest strictly-future
// event is, in the dashboard's wording.
func ClosestEventLabel(events []models.Event, now time.Time) string {
	if len(events) == 0 {
		return "No events"
	}

	var closest time.Time
	found := false
	for _, event := range events {
		date := ParseEventDate(event.Date, now)
		if !date.After(now) {
			continue
		}
		if !found || date.Before(closest) {
			closest = date
			found = true
		}
	}
	if !found {
		return "No upcoming events"
	}

	days := int64(closest.Sub(now).Hours() / 24)
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days < 7:
		return fmt.Sprintf("In %d days", days)
	default:
		return fmt.Sprintf("In %d weeks", days/7)
	}
}

// EventDay extracts the day-of-month portion for the calendar tile, or
// "--" when the date does not split.
func EventDay(date string) string {
	parts := strings.Split(date, "/")
	if len(parts) < 2 {
		return "--"
	}
	return parts[1]
}

// EventMonth extracts the short month name for the calendar tile.
func EventMonth(date string) string {
	parts := strings.Split(date, "/")
	if len(parts) < 2 {
		return "--"
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return "--"
	}
	return monthNames[month-1]
}
