package verifier

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchMode selects how a registry entry compares a course title.
type MatchMode string

const (
	// ModeExact is case-sensitive literal equality.
	ModeExact MatchMode = "exact"
	// ModeNormalized compares case-insensitively after collapsing whitespace,
	// unifying apostrophes and dropping a leading qualifier such as "Mandatory - ".
	ModeNormalized MatchMode = "normalized"
	// ModePattern matches the whole title against a case-insensitive regular
	// expression. Every apostrophe in the pattern also accepts curly quotes,
	// backticks or no apostrophe at all, and a leading qualifier is allowed.
	ModePattern MatchMode = "pattern"
)

const qualifierExpr = `(?:mandatory|optional|required)\s*[-–—:]\s*`

var (
	qualifierPrefix = regexp.MustCompile(`(?i)^` + qualifierExpr)
	apostrophes     = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "´", "'")
)

// CourseEntry is one approved course.
type CourseEntry struct {
	Mode      MatchMode `json:"mode" yaml:"mode"`
	Match     string    `json:"match" yaml:"match"`
	Code      string    `json:"code" yaml:"code"`
	Category  string    `json:"category,omitempty" yaml:"category,omitempty"`
	Canonical string    `json:"canonical,omitempty" yaml:"canonical,omitempty"`

	re *regexp.Regexp
}

// NewCourseEntry validates and prepares an entry. Pattern entries are compiled
// here so a bad expression fails at startup rather than during verification.
func NewCourseEntry(mode MatchMode, match, code, category, canonical string) (CourseEntry, error) {
	e := CourseEntry{Mode: mode, Match: match, Code: code, Category: category, Canonical: canonical}
	if strings.TrimSpace(match) == "" {
		return e, fmt.Errorf("course %q: empty matcher", code)
	}
	if strings.TrimSpace(code) == "" {
		return e, fmt.Errorf("course %q: empty code", match)
	}
	switch mode {
	case ModeExact, ModeNormalized:
	case ModePattern:
		re, err := regexp.Compile(`(?i)^(?:` + qualifierExpr + `)?(?:` + widenApostrophes(match) + `)$`)
		if err != nil {
			return e, fmt.Errorf("course %q: invalid pattern: %w", code, err)
		}
		e.re = re
	default:
		return e, fmt.Errorf("course %q: unknown match mode %q", code, mode)
	}
	return e, nil
}

const apostropheVariants = "'’‘`´"

// widenApostrophes rewrites a course pattern so each apostrophe also accepts
// its typographic variants. A bare apostrophe may also be missing; one inside
// a character class just gains the variants as class members.
func widenApostrophes(expr string) string {
	var b strings.Builder
	inClass := false
	runes := []rune(expr)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			if runes[i+1] == '\'' {
				i++
				if inClass {
					b.WriteString(apostropheVariants)
				} else {
					b.WriteString("(?:[" + apostropheVariants + "]?)")
				}
				continue
			}
			b.WriteRune(r)
			b.WriteRune(runes[i+1])
			i++
		case inClass && r == '[' && i+1 < len(runes) && runes[i+1] == ':':
			// [:alpha:] style class names
			end := strings.Index(string(runes[i:]), ":]")
			if end < 0 {
				b.WriteRune(r)
				continue
			}
			seg := []rune(string(runes[i:])[:end+2])
			b.WriteString(string(seg))
			i += len(seg) - 1
		case !inClass && r == '[':
			inClass = true
			b.WriteRune(r)
			if i+1 < len(runes) && runes[i+1] == '^' {
				b.WriteRune('^')
				i++
			}
			// a leading ] is a literal member
			if i+1 < len(runes) && runes[i+1] == ']' {
				b.WriteRune(']')
				i++
			}
		case inClass && r == ']':
			inClass = false
			b.WriteRune(r)
		case r == '\'':
			if inClass {
				b.WriteString(apostropheVariants)
			} else {
				b.WriteString("(?:[" + apostropheVariants + "]?)")
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func mustCourse(mode MatchMode, match, code, category, canonical string) CourseEntry {
	e, err := NewCourseEntry(mode, match, code, category, canonical)
	if err != nil {
		panic(err)
	}
	return e
}

// Accepts reports whether title satisfies the entry's matcher.
func (e CourseEntry) Accepts(title string) bool {
	switch e.Mode {
	case ModeExact:
		return title == e.Match
	case ModeNormalized:
		return strings.EqualFold(normalizeTitle(title), normalizeTitle(e.Match))
	case ModePattern:
		return e.re != nil && e.re.MatchString(collapseSpaces(title))
	}
	return false
}

// Title is the title reported for a match: the canonical form when the entry
// has one, otherwise the extracted title unchanged.
func (e CourseEntry) Title(extracted string) string {
	if e.Canonical != "" {
		return e.Canonical
	}
	return extracted
}

func normalizeTitle(s string) string {
	s = collapseSpaces(apostrophes.Replace(s))
	return qualifierPrefix.ReplaceAllString(s, "")
}

// Registry is the ordered list of approved courses. The first accepting entry
// wins. A Registry is read-only once built.
type Registry struct {
	entries []CourseEntry
}

func NewRegistry(entries ...CourseEntry) *Registry {
	return &Registry{entries: append([]CourseEntry(nil), entries...)}
}

// Entries returns a copy of the registry in priority order.
func (r *Registry) Entries() []CourseEntry {
	return append([]CourseEntry(nil), r.entries...)
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Match returns the first entry that accepts title.
func (r *Registry) Match(title string) (CourseEntry, bool) {
	for _, e := range r.entries {
		if e.Accepts(title) {
			return e, true
		}
	}
	return CourseEntry{}, false
}

// CheckCanonical verifies that every canonical title resolves back to the
// entry that declares it, so a verified title re-validates to the same code.
func (r *Registry) CheckCanonical() error {
	for _, e := range r.entries {
		if e.Canonical == "" {
			continue
		}
		got, ok := r.Match(e.Canonical)
		if !ok {
			return fmt.Errorf("course %q: canonical title %q matches no entry", e.Code, e.Canonical)
		}
		if got.Code != e.Code {
			return fmt.Errorf("course %q: canonical title %q matches course %q", e.Code, e.Canonical, got.Code)
		}
	}
	return nil
}

// Validate is Match with a CourseNotApproved rejection on a miss.
func (r *Registry) Validate(title string) (CourseEntry, *Rejection) {
	if e, ok := r.Match(title); ok {
		return e, nil
	}
	return CourseEntry{}, NewCourseNotApproved(title)
}

// DefaultRegistry returns the built-in approved-course list.
func DefaultRegistry() *Registry {
	return NewRegistry(
		mustCourse(ModePattern, `Don't Feed The 'ish`, "DFT", "Security", "Don't Feed The 'ish"),
		mustCourse(ModeNormalized, "Being Accountable: Our Code", "BAOC", "Compliance", "Being Accountable: Our Code"),
		mustCourse(ModeNormalized, "Anti-Bribery and Corruption", "ABC", "Compliance", ""),
		mustCourse(ModePattern, `Data Protection(?: and Privacy)?(?: Essentials)?`, "DPP", "Privacy", "Data Protection and Privacy"),
		mustCourse(ModePattern, `Health(?:,| and| &) Safety(?: Essentials)?`, "HSE", "Safety", "Health and Safety Essentials"),
		mustCourse(ModePattern, `Speak ?Up(?: Policy)?`, "SPU", "Ethics", "Speak Up"),
		mustCourse(ModeExact, "Security Awareness", "SA", "", ""),
	)
}
