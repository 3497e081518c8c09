package ics

import (
	"regexp"
	"strings"
)

// slugFallback is substituted when slugging leaves nothing usable.
const slugFallback = "event"

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// Slugify derives a filesystem-safe, lowercase, hyphen-separated name from
// a human-readable string.
func Slugify(text string) string {
	text = slugStrip.ReplaceAllString(text, "")
	text = strings.ToLower(strings.TrimSpace(text))
	text = slugCollapse.ReplaceAllString(text, "-")
	if text == "" {
		return slugFallback
	}
	return text
}
