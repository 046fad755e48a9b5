// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize centralizes the bluemonday policies applied to
// user-supplied text before it is stored.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ugc keeps common formatting (paragraphs, emphasis, lists, tables,
	// links) and strips everything executable. Used for descriptions.
	ugc = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.AllowTables()
		return p
	}()

	// strict strips all markup. Used for names and reasons, which are
	// plain text.
	strict = bluemonday.StrictPolicy()
)

// Sanitize removes unsafe HTML while keeping basic formatting.
func Sanitize(s string) string {
	return ugc.Sanitize(s)
}

// Strip removes all markup and trims surrounding whitespace.
func Strip(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
