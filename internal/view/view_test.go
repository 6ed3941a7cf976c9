package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow-app/eventflow/internal/models"
)

// now is fixed so projections are deterministic: Jan 15 2025, noon.
var now = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

func TestParseEventDate_FallsBackToNow(t *testing.T) {
	assert.Equal(t, time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC), ParseEventDate("02/20/2025", now))
	assert.Equal(t, now, ParseEventDate("bad-date", now))
	assert.Equal(t, now, ParseEventDate("", now))
}

// An unparsable date sorts at the slot corresponding to "now" instead of
// raising: between the January event and the February event here.
func TestSortByDate_UnparsableSortsAsNow(t *testing.T) {
	events := []models.Event{
		{ID: "a", Date: "02/20/2025"},
		{ID: "b", Date: "01/10/2025"},
		{ID: "c", Date: "bad-date"},
	}

	sorted := SortByDate(events, now)

	require.Len(t, sorted, 3)
	assert.Equal(t, "b", sorted[0].ID)
	assert.Equal(t, "c", sorted[1].ID)
	assert.Equal(t, "a", sorted[2].ID)
}

func TestSortByDate_DoesNotMutateInput(t *testing.T) {
	events := []models.Event{
		{ID: "a", Date: "02/20/2025"},
		{ID: "b", Date: "01/10/2025"},
	}

	SortByDate(events, now)

	assert.Equal(t, "a", events[0].ID, "input order should be untouched")
}

func TestTakeSoonest(t *testing.T) {
	events := []models.Event{
		{ID: "a", Date: "03/01/2025"},
		{ID: "b", Date: "01/20/2025"},
		{ID: "c", Date: "02/01/2025"},
	}

	soonest := TakeSoonest(events, 2, now)

	require.Len(t, soonest, 2)
	assert.Equal(t, "b", soonest[0].ID)
	assert.Equal(t, "c", soonest[1].ID)
}

func TestIsUpcoming(t *testing.T) {
	assert.True(t, IsUpcoming("01/17/2025", now), "two days out is upcoming")
	assert.False(t, IsUpcoming("01/25/2025", now), "beyond the three day window")
	assert.False(t, IsUpcoming("01/10/2025", now), "past dates are not upcoming")
	assert.False(t, IsUpcoming("bad-date", now), "unparsable falls back to now, which is not strictly future")
}

func TestClosestEventLabel(t *testing.T) {
	tests := []struct {
		name   string
		events []models.Event
		want   string
	}{
		{"no events", nil, "No events"},
		{"only past events", []models.Event{{Date: "01/01/2025"}}, "No upcoming events"},
		{"later today", []models.Event{{Date: "01/15/2025"}}, "No upcoming events"},
		{"tomorrow midnight is under a day away", []models.Event{{Date: "01/16/2025"}}, "Today"},
		{"three full days away", []models.Event{{Date: "01/19/2025"}}, "In 3 days"},
		{"two full weeks away", []models.Event{{Date: "02/05/2025"}}, "In 2 weeks"},
		{"picks the nearest", []models.Event{{Date: "03/01/2025"}, {Date: "01/16/2025"}}, "Today"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClosestEventLabel(tt.events, now))
		})
	}
}

func TestEventDayAndMonth(t *testing.T) {
	assert.Equal(t, "20", EventDay("02/20/2025"))
	assert.Equal(t, "Feb", EventMonth("02/20/2025"))
	assert.Equal(t, "--", EventDay("no-slashes"))
	assert.Equal(t, "--", EventMonth("13/01/2025"))
	assert.Equal(t, "--", EventMonth("xx/01/2025"))
}

func TestEvents_FlattensSnapshot(t *testing.T) {
	snap := map[string]models.Event{
		"a": {ID: "a"},
		"b": {ID: "b"},
	}
	assert.ElementsMatch(t, []models.Event{{ID: "a"}, {ID: "b"}}, Events(snap))
}
