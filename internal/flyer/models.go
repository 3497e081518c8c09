package flyer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// OptionalString is a defensively decoded string field. Model output is
// untrusted: a field may be absent, null, a string, or some other scalar.
// Decoding never fails; anything that cannot be coerced to a string is
// simply treated as unset.
type OptionalString struct {
	Value string
	Set   bool
}

// UnmarshalJSON coerces strings, numbers, and booleans to their string
// form and treats null, objects, and arrays as absent.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		o.Value = s
		o.Set = true
	case '{', '[':
		// structured values have no sensible string form
	case 't', 'f':
		o.Value = string(data)
		o.Set = true
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err == nil {
			o.Value = string(data)
			o.Set = true
		}
	}
	return nil
}

// CandidateEvent is one event record as the model reported it. Every field
// is optional and untrusted.
type CandidateEvent struct {
	Title       OptionalString `json:"title"`
	Date        OptionalString `json:"date"`
	StartTime   OptionalString `json:"start_time"`
	EndTime     OptionalString `json:"end_time"`
	Location    OptionalString `json:"location"`
	Description OptionalString `json:"description"`
}

// CanonicalEvent is a validated event ready for calendar serialization.
// Start is always resolvable for events produced by the normalizer.
type CanonicalEvent struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// EventGroup is one calendar day's worth of events, sorted by start time.
type EventGroup struct {
	Date   string           `json:"date"`
	Events []CanonicalEvent `json:"events"`
}

// FlyerImage is a decoded upload ready to be sent to the vision model.
type FlyerImage struct {
	MediaType string
	Base64    string
}
