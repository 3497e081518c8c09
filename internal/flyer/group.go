package flyer

import "sort"

// UnknownDateKey is the bucket for events whose start date cannot be
// computed. It sorts lexicographically with the real date keys; consumers
// must special-case it if they need it first or last.
const UnknownDateKey = "unknown-date"

// GroupByDate partitions events into per-day buckets keyed by the ISO date
// of the start timestamp. Groups are ordered by key ascending and events
// within a group by start time ascending.
func GroupByDate(events []CanonicalEvent) []EventGroup {
	buckets := make(map[string][]CanonicalEvent)
	for _, ev := range events {
		key := UnknownDateKey
		if !ev.Start.IsZero() {
			key = ev.Start.Format("2006-01-02")
		}
		buckets[key] = append(buckets[key], ev)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]EventGroup, 0, len(keys))
	for _, key := range keys {
		bucket := buckets[key]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Start.Before(bucket[j].Start)
		})
		groups = append(groups, EventGroup{Date: key, Events: bucket})
	}
	return groups
}
