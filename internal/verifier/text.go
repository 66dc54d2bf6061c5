// Package verifier decides whether extracted certificate text describes a
// recognised course completion.
//
// Verification runs in three stages: a structural precheck for the marker
// phrases every certificate carries, a waterfall of extraction templates that
// pulls out the recipient, course title and completion date, and a lookup of
// the course title in the approved-course registry. Markers, templates and the
// registry are built once and never mutated, so an Engine is safe for
// concurrent use.
package verifier

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultPageSeparator joins the text of consecutive pages.
const DefaultPageSeparator = "\n"

// JoinPages concatenates per-page text in page order, skipping blank pages.
func JoinPages(pages []string, sep string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p) == "" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, sep)
}

// NormalizeText canonicalises extracted text before matching: unified line
// endings, NFKC compatibility forms (ligatures, no-break spaces), trimmed lines
// and no blank lines. Letter case and punctuation are left untouched.
func NormalizeText(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	s = norm.NFKC.String(s)

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// collapseSpaces folds every whitespace run into a single space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
