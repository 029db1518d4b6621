// Package sanitize strips markup from member-submitted text before it is
// stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Policies are safe for concurrent use once built.
var strict = bluemonday.StrictPolicy()

// Text removes every HTML element and trims surrounding whitespace. Entities
// are decoded again so plain characters such as "&" survive.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Lines applies Text to each entry and drops entries left empty.
func Lines(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = Text(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
