package ics

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"flyercalbackend/internal/flyer"
)

func sampleEvent() flyer.CanonicalEvent {
	return flyer.CanonicalEvent{
		Title:       "Fall Fair",
		Start:       time.Date(2025, time.September, 20, 10, 0, 0, 0, time.UTC),
		End:         time.Date(2025, time.September, 20, 12, 0, 0, 0, time.UTC),
		Location:    "School Field",
		Description: "Games and food stalls",
	}
}

func TestBuildSingleRoundTrip(t *testing.T) {
	ev := sampleEvent()

	body, err := BuildSingle(ev)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 VEVENT, got %d", len(events))
	}

	start, err := events[0].GetStartAt()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	end, err := events[0].GetEndAt()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if !start.Equal(ev.Start.Truncate(time.Second)) {
		t.Errorf("start = %v, want %v", start, ev.Start)
	}
	if !end.Equal(ev.End.Truncate(time.Second)) {
		t.Errorf("end = %v, want %v", end, ev.End)
	}

	if p := events[0].GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != ev.Title {
		t.Errorf("summary missing or wrong: %+v", p)
	}
	if p := events[0].GetProperty(ical.ComponentPropertyLocation); p == nil || p.Value != ev.Location {
		t.Errorf("location missing or wrong: %+v", p)
	}
	if p := events[0].GetProperty(ical.ComponentPropertyDescription); p == nil || p.Value != ev.Description {
		t.Errorf("description missing or wrong: %+v", p)
	}
}

func TestBuildSingleRejectsMissingStart(t *testing.T) {
	ev := sampleEvent()
	ev.Start = time.Time{}
	if _, err := BuildSingle(ev); err == nil {
		t.Fatal("expected error for missing start")
	}
}

func TestBuildManySkipsInvalidEvents(t *testing.T) {
	broken := sampleEvent()
	broken.Title = "Broken"
	broken.End = time.Time{}

	second := sampleEvent()
	second.Title = "Book Fair"
	second.Start = second.Start.AddDate(0, 0, 1)
	second.End = second.End.AddDate(0, 0, 1)

	body, err := BuildMany([]flyer.CanonicalEvent{sampleEvent(), broken, second})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if got := len(cal.Events()); got != 2 {
		t.Fatalf("expected broken event to be skipped, got %d VEVENTs", got)
	}
	if strings.Contains(body, "Broken") {
		t.Fatal("broken event leaked into combined file")
	}
}

func TestBuildManyEmptyIsValid(t *testing.T) {
	body, err := BuildMany(nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(cal.Events()) != 0 {
		t.Fatalf("expected zero events, got %d", len(cal.Events()))
	}
	if !strings.Contains(body, "BEGIN:VCALENDAR") {
		t.Fatal("missing VCALENDAR container")
	}
}

func TestBuildArchiveNamesAndContents(t *testing.T) {
	first := sampleEvent()
	second := sampleEvent()
	second.Title = "Back to School Night!"

	archive, err := BuildArchive([]flyer.CanonicalEvent{first, second}, "Fall Flyer.png")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}

	wantNames := map[string]bool{
		"fall-flyerpng-fall-fair.ics":            true,
		"fall-flyerpng-back-to-school-night.ics": true,
	}
	for _, f := range zr.File {
		if !wantNames[f.Name] {
			t.Errorf("unexpected entry name %q", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		cal, err := ical.ParseCalendar(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("entry %q is not valid ICS: %v", f.Name, err)
		}
		if len(cal.Events()) != 1 {
			t.Errorf("entry %q should hold exactly one event", f.Name)
		}
	}
}

func TestBuildArchiveEmptyIsValid(t *testing.T) {
	archive, err := BuildArchive(nil, "x")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 0 {
		t.Fatalf("expected empty archive, got %d entries", len(zr.File))
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Back to School Night!", "back-to-school-night"},
		{"!!!", "event"},
		{"", "event"},
		{"  Fall   Festival  ", "fall-festival"},
		{"PTA Meeting - Room 4", "pta-meeting-room-4"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
