package verifier

import (
	"regexp"
	"strings"
)

// TemplateSetVersion identifies the built-in template list. Bump it whenever
// a template is added, removed or reordered.
const TemplateSetVersion = "2024.4"

// datePattern matches the completion date layouts seen on issued certificates.
const datePattern = `(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}` +
	`|\d{1,2}(?:st|nd|rd|th)?\s+[A-Z][a-z]+\s+\d{4}` +
	`|[A-Z][a-z]+\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4})`

// decoration is the whitespace and separator debris left around a capture by
// layouts that fence fields with dash lines.
var decoration = regexp.MustCompile(`^[\s\-_=~|–—]+|[\s\-_=~|–—]+$`)

// bareDate is a capture holding nothing but the date-introducing token and/or
// a date, which no layout uses as a course title.
var bareDate = regexp.MustCompile(`(?i)^(?:on\b\s*)?` + datePattern + `?$`)

// Rule extracts one field: the text captured by Group in Pattern.
type Rule struct {
	Pattern *regexp.Regexp
	Group   int
}

// NewRule compiles expr so that "." also matches newlines. The match may start
// anywhere in the text.
func NewRule(expr string, group int) *Rule {
	return &Rule{Pattern: regexp.MustCompile(`(?s)` + expr), Group: group}
}

// Find returns the cleaned capture, or false when the pattern does not match
// or the capture is empty once decoration is stripped.
func (r *Rule) Find(text string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil || r.Group >= len(m) {
		return "", false
	}
	v := cleanCapture(m[r.Group])
	return v, v != ""
}

func cleanCapture(s string) string {
	return collapseSpaces(decoration.ReplaceAllString(strings.TrimSpace(s), ""))
}

// Template is a self-contained rule set for one certificate layout. Name and
// Date rules are optional; when set they must match for the template to apply.
type Template struct {
	Name   string
	Person *Rule
	Course *Rule
	Date   *Rule
}

// Apply runs every rule of the template. It succeeds only when all of them
// resolve; a template is never partially applied.
func (t Template) Apply(text string) (ExtractedFields, bool) {
	if t.Course == nil {
		return ExtractedFields{}, false
	}
	fields := ExtractedFields{Template: t.Name}

	course, ok := t.Course.Find(text)
	if !ok || bareDate.MatchString(course) {
		return ExtractedFields{}, false
	}
	fields.CourseTitle = course

	if t.Person != nil {
		name, ok := t.Person.Find(text)
		if !ok {
			return ExtractedFields{}, false
		}
		fields.Name = name
	}
	if t.Date != nil {
		date, ok := t.Date.Find(text)
		if !ok {
			return ExtractedFields{}, false
		}
		fields.CompletionDate = date
	}
	return fields, true
}

// DefaultTemplates returns the built-in layouts in priority order.
func DefaultTemplates() []Template {
	return []Template{
		{
			// Fields fenced by "---" lines.
			Name:   "dashed",
			Person: NewRule(`This is to certify that\s*-{2,}\s*(.+?)\s*-{2,}\s*has completed`, 1),
			Course: NewRule(`has completed\s*-{2,}\s*(.+?)\s*-{2,}\s*on\s*-{2,}`, 1),
			Date:   NewRule(`has completed.*?\bon\s*-{2,}\s*`+datePattern, 1),
		},
		{
			// One field per line, no fences.
			Name:   "lined",
			Person: NewRule(`This is to certify that\s*\n(.+?)\n\s*has completed`, 1),
			Course: NewRule(`has completed\s*\n(.+?)\n\s*on\s+`+datePattern, 1),
			Date:   NewRule(`has completed.*?\n\s*on\s+`+datePattern, 1),
		},
		{
			// Single sentence naming the recipient on the same line.
			Name:   "inline-named",
			Person: NewRule(`This is to certify that[ \t]+([^\n]+?)[ \t]+has completed`, 1),
			Course: NewRule(`has completed(?:\s+the)?\s+(.+?)\s+on\s+`+datePattern, 1),
			Date:   NewRule(`has completed.+?\s+on\s+`+datePattern, 1),
		},
		{
			Name:   "inline",
			Course: NewRule(`has completed(?:\s+the)?\s+(.+?)\s+on\s+`+datePattern, 1),
			Date:   NewRule(`has completed.+?\s+on\s+`+datePattern, 1),
		},
	}
}
