package flyer

import (
	"log"
	"strings"
)

const defaultTitle = "Untitled Event"

// StartPolicy controls what the normalizer does with a candidate whose
// start time cannot be resolved.
type StartPolicy int

const (
	// StartPolicyDrop excludes the candidate from the output. An event
	// without a usable start time is not worth keeping.
	StartPolicyDrop StartPolicy = iota

	// StartPolicyDefault keeps the candidate with a now-anchored start.
	StartPolicyDefault
)

// Normalizer validates and repairs candidate events into canonical ones.
// It is a pure transform: per-field failures default, and only the start
// policy ever removes a record.
type Normalizer struct {
	Resolver *Resolver
	Policy   StartPolicy
}

// Normalize converts candidates in input order. It never fails: malformed
// records become defaulted or dropped records, not errors.
func (n *Normalizer) Normalize(candidates []CandidateEvent) []CanonicalEvent {
	events := make([]CanonicalEvent, 0, len(candidates))
	for _, c := range candidates {
		title := strings.TrimSpace(c.Title.Value)
		if title == "" {
			title = defaultTitle
		}

		start, end, err := n.Resolver.Resolve(c.Date.Value, c.StartTime.Value, c.EndTime.Value)
		if err != nil {
			if n.Policy == StartPolicyDrop {
				log.Printf("normalize: dropping %q: %v", title, err)
				continue
			}
			log.Printf("normalize: keeping %q with defaulted times: %v", title, err)
		}

		events = append(events, CanonicalEvent{
			Title:       title,
			Start:       start,
			End:         end,
			Location:    strings.TrimSpace(c.Location.Value),
			Description: strings.TrimSpace(c.Description.Value),
		})
	}
	return events
}
