package verifier

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Marker is a literal phrase that every certificate must contain. Matching is
// case-sensitive and respects word boundaries, so "on" is not satisfied by
// the letters inside "completion".
type Marker struct {
	Name   string
	Phrase string
	re     *regexp.Regexp
}

// NewMarker builds a marker for phrase.
func NewMarker(name, phrase string) Marker {
	expr := regexp.QuoteMeta(phrase)
	if r, _ := utf8.DecodeRuneInString(phrase); isWordRune(r) {
		expr = `\b` + expr
	}
	if r, _ := utf8.DecodeLastRuneInString(phrase); isWordRune(r) {
		expr += `\b`
	}
	return Marker{Name: name, Phrase: phrase, re: regexp.MustCompile(expr)}
}

func isWordRune(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

// Present reports whether the marker occurs anywhere in text.
func (m Marker) Present(text string) bool {
	return m.re.MatchString(text)
}

// DefaultMarkers returns the phrases required of every certificate.
func DefaultMarkers() []Marker {
	return []Marker{
		NewMarker("issuer", "BT Group"),
		NewMarker("header", "Certificate of completion"),
		NewMarker("certification", "This is to certify that"),
		NewMarker("completion", "has completed"),
		NewMarker("date", "on"),
	}
}

// Precheck verifies that text contains every marker. The returned rejection
// lists all missing phrases in marker order.
func Precheck(text string, markers []Marker) *Rejection {
	var missing []string
	for _, m := range markers {
		if !m.Present(text) {
			missing = append(missing, m.Phrase)
		}
	}
	if len(missing) > 0 {
		return NewMissingMarkers(missing)
	}
	return nil
}
