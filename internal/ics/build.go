// Package ics serializes canonical events into iCalendar files that
// standard calendar applications can import, and bundles them into
// downloadable archives.
package ics

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"log"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"flyercalbackend/internal/flyer"
)

const productID = "-//flyercal//flyer to calendar//EN"

// BuildSingle produces one VCALENDAR containing exactly one VEVENT.
func BuildSingle(ev flyer.CanonicalEvent) (string, error) {
	if err := validate(ev); err != nil {
		return "", fmt.Errorf("build event %q: %w", ev.Title, err)
	}
	cal := newCalendar()
	addEvent(cal, ev)
	return cal.Serialize(), nil
}

// BuildMany produces one VCALENDAR with one VEVENT per valid input event,
// in input order. Events that fail re-validation are skipped so the
// combined file stays importable; an empty input yields a valid zero-event
// calendar.
func BuildMany(events []flyer.CanonicalEvent) (string, error) {
	cal := newCalendar()
	for _, ev := range events {
		if err := validate(ev); err != nil {
			log.Printf("ics: skipping %q in combined file: %v", ev.Title, err)
			continue
		}
		addEvent(cal, ev)
	}
	return cal.Serialize(), nil
}

// BuildArchive produces a zip containing one independently valid
// single-event .ics file per event, named <slug(base)>-<slug(title)>.ics.
// An empty input yields a valid empty archive.
func BuildArchive(events []flyer.CanonicalEvent, baseName string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, ev := range events {
		body, err := BuildSingle(ev)
		if err != nil {
			log.Printf("ics: skipping %q in archive: %v", ev.Title, err)
			continue
		}
		name := fmt.Sprintf("%s-%s.ics", Slugify(baseName), Slugify(ev.Title))
		entry, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("archive entry %s: %w", name, err)
		}
		if _, err := entry.Write([]byte(body)); err != nil {
			return nil, fmt.Errorf("archive entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	return cal
}

func addEvent(cal *ical.Calendar, ev flyer.CanonicalEvent) {
	title := ev.Title
	if title == "" {
		title = "Untitled Event"
	}

	e := cal.AddEvent(uuid.NewString())
	e.SetDtStampTime(time.Now().UTC())
	e.SetStartAt(ev.Start.UTC())
	e.SetEndAt(ev.End.UTC())
	e.SetSummary(title)
	e.SetLocation(ev.Location)
	e.SetDescription(ev.Description)
}

func validate(ev flyer.CanonicalEvent) error {
	if ev.Start.IsZero() {
		return errors.New("missing start time")
	}
	if ev.End.IsZero() {
		return errors.New("missing end time")
	}
	return nil
}
