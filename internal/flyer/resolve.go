package flyer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const isoLayout = "2006-01-02T15:04:05"

// Resolver turns free-form date/time strings into absolute timestamps.
// Resolution is layered: explicit ISO-8601 first, then lax parsing of the
// raw string, then a fuzzy pass that drops everything but recognizable
// date tokens. Failures default rather than abort.
type Resolver struct {
	// DefaultHour is the start hour-of-day used when no start time is
	// given or the given one does not parse.
	DefaultHour int

	// DefaultDuration is added to the start when no end time is given or
	// the given one does not parse.
	DefaultDuration time.Duration

	// Location anchors parsed wall-clock values. Defaults to time.Local.
	Location *time.Location

	// Now supplies the current instant for year injection and last-resort
	// defaults. Defaults to time.Now.
	Now func() time.Time
}

// NewResolver returns a resolver with the standard 09:00 start default.
func NewResolver(defaultDuration time.Duration) *Resolver {
	return &Resolver{
		DefaultHour:     9,
		DefaultDuration: defaultDuration,
	}
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Resolver) loc() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.Local
}

// Resolve computes absolute start and end timestamps for an event. A
// non-nil error means the date itself was unresolvable; the returned
// values then carry the now-anchored defaults so callers can still keep
// the record if their policy allows it.
func (r *Resolver) Resolve(date, startTime, endTime string) (time.Time, time.Time, error) {
	date = strings.TrimSpace(date)
	startTime = strings.TrimSpace(startTime)
	endTime = strings.TrimSpace(endTime)

	// Richer extraction prompts ask for full ISO timestamps in start_time
	// with no separate date field.
	if date == "" {
		return r.resolveTimestamps(startTime, endTime)
	}

	day, err := r.resolveDay(date)
	if err != nil {
		now := r.now()
		return now, now.Add(r.DefaultDuration), fmt.Errorf("resolve date %q: %w", date, err)
	}

	start := r.defaultStart(day)
	if startTime != "" {
		if t, clockErr := r.clockOn(day, startTime); clockErr == nil {
			start = t
		}
	}

	end := start.Add(r.DefaultDuration)
	if endTime != "" {
		if t, clockErr := r.clockOn(day, endTime); clockErr == nil {
			end = t
		}
	}

	return start, end, nil
}

// resolveTimestamps handles the date-less shape where start_time and
// end_time are expected to be complete timestamps.
func (r *Resolver) resolveTimestamps(startTime, endTime string) (time.Time, time.Time, error) {
	start, err := r.parseTimestamp(startTime)
	if err != nil {
		now := r.now()
		return now, now.Add(r.DefaultDuration), fmt.Errorf("resolve start %q: %w", startTime, err)
	}

	end := start.Add(r.DefaultDuration)
	if endTime != "" {
		if t, endErr := r.parseTimestamp(endTime); endErr == nil {
			end = t
		}
	}

	return start, end, nil
}

// parseTimestamp resolves a string expected to carry both date and time.
func (r *Resolver) parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.ParseInLocation(isoLayout, s, r.loc()); err == nil {
		return t, nil
	}
	return r.resolveDay(s)
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// resolveDay parses a free-form date string into an anchor timestamp,
// injecting the current year when none is present.
func (r *Resolver) resolveDay(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(isoLayout, s, r.loc()); err == nil {
		return t, nil
	}

	if !yearPattern.MatchString(s) {
		s = fmt.Sprintf("%s %d", s, r.now().Year())
	}

	if t, err := r.parseLax(s); err == nil {
		return t, nil
	}

	// Fuzzy pass: keep only tokens that look like part of a date. A lone
	// surviving token (usually just the injected year) is not a date.
	reduced := reduceToDateTokens(s)
	if reduced == s || len(strings.Fields(reduced)) < 2 {
		return time.Time{}, fmt.Errorf("unrecognizable date")
	}
	if t, err := r.parseLax(reduced); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognizable date")
}

// dayLayouts covers spellings dateparse is picky about.
var dayLayouts = []string{
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

func (r *Resolver) parseLax(s string) (time.Time, error) {
	for _, layout := range dayLayouts {
		if t, err := time.ParseInLocation(layout, s, r.loc()); err == nil {
			return t, nil
		}
	}
	return dateparse.ParseIn(s, r.loc())
}

// defaultStart anchors a date-only value at the default start hour.
func (r *Resolver) defaultStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), r.DefaultHour, 0, 0, 0, r.loc())
}

// clockLayouts are tried against an uppercased, trimmed clock string.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// clockOn combines a resolved day with a clock string.
func (r *Resolver) clockOn(day time.Time, s string) (time.Time, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("A.M.", "AM", "P.M.", "PM").Replace(normalized)

	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, r.loc()), nil
		}
	}

	// The clock string may itself be a full ISO timestamp.
	if t, err := time.ParseInLocation(isoLayout, s, r.loc()); err == nil {
		return t, nil
	}
	combined := day.Format("2006-01-02") + " " + s
	if t, err := dateparse.ParseIn(combined, r.loc()); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognizable time %q", s)
}

var monthAndWeekdayNames = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "sept": true, "oct": true,
	"nov": true, "dec": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"mon": true, "tue": true, "wed": true, "thu": true, "fri": true,
	"sat": true, "sun": true,
}

var (
	numericToken  = regexp.MustCompile(`^\d{1,4}(st|nd|rd|th)?$`)
	ordinalSuffix = regexp.MustCompile(`(st|nd|rd|th)$`)
)

// reduceToDateTokens strips words that cannot be part of a date so prose
// like "September 5, don't forget!" parses as "September 5".
func reduceToDateTokens(s string) string {
	fields := strings.Fields(s)
	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.ToLower(strings.Trim(field, ".,;:!?()"))
		switch {
		case token == "":
		case monthAndWeekdayNames[token]:
			kept = append(kept, strings.Trim(field, ".,;:!?()"))
		case numericToken.MatchString(token):
			kept = append(kept, ordinalSuffix.ReplaceAllString(token, ""))
		case token == "am" || token == "pm":
			kept = append(kept, strings.ToUpper(token))
		case strings.ContainsAny(token, ":/"):
			kept = append(kept, strings.Trim(field, ".,;:!?()"))
		}
	}
	return strings.Join(kept, " ")
}
