package flyer

import (
	"testing"
	"time"
)

func TestGroupByDateBucketsAndSorts(t *testing.T) {
	day := func(d, h int) time.Time {
		return time.Date(2025, time.September, d, h, 0, 0, 0, time.UTC)
	}
	events := []CanonicalEvent{
		{Title: "Late same day", Start: day(5, 18), End: day(5, 20)},
		{Title: "Next week", Start: day(12, 9), End: day(12, 10)},
		{Title: "Early same day", Start: day(5, 8), End: day(5, 9)},
	}

	groups := GroupByDate(events)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Date != "2025-09-05" || groups[1].Date != "2025-09-12" {
		t.Fatalf("groups not sorted by date: %q, %q", groups[0].Date, groups[1].Date)
	}

	sameDay := groups[0].Events
	if len(sameDay) != 2 {
		t.Fatalf("expected 2 events on 2025-09-05, got %d", len(sameDay))
	}
	if sameDay[0].Title != "Early same day" || sameDay[1].Title != "Late same day" {
		t.Fatalf("events not sorted by start time: %q then %q", sameDay[0].Title, sameDay[1].Title)
	}
}

func TestGroupByDateUnknownBucket(t *testing.T) {
	events := []CanonicalEvent{
		{Title: "No start"},
		{Title: "Dated", Start: time.Date(2025, time.September, 5, 9, 0, 0, 0, time.UTC)},
	}

	groups := GroupByDate(events)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	// unknown-date sorts lexicographically after numeric dates
	if groups[0].Date != "2025-09-05" || groups[1].Date != UnknownDateKey {
		t.Fatalf("unexpected keys: %q, %q", groups[0].Date, groups[1].Date)
	}
	if len(groups[1].Events) != 1 || groups[1].Events[0].Title != "No start" {
		t.Fatalf("unknown bucket contents wrong: %+v", groups[1].Events)
	}
}

func TestGroupByDateEmpty(t *testing.T) {
	if groups := GroupByDate(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}
