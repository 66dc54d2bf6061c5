package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFields_DefaultTemplates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected ExtractedFields
	}{
		{
			name: "dashed layout",
			text: canonicalText,
			expected: ExtractedFields{
				Name:           "Jane Doe",
				CourseTitle:    "Don't Feed The 'ish",
				CompletionDate: "01/02/2024",
				Template:       "dashed",
			},
		},
		{
			name: "dashed layout with wrapped title",
			text: "This is to certify that\n-----\nJane Doe\n-----\nhas completed\n-----\nMandatory - Data Protection\nand Privacy\n-----\non\n-----\n3 March 2024",
			expected: ExtractedFields{
				Name:           "Jane Doe",
				CourseTitle:    "Mandatory - Data Protection and Privacy",
				CompletionDate: "3 March 2024",
				Template:       "dashed",
			},
		},
		{
			name: "lined layout",
			text: "This is to certify that\nAmir Khan\nhas completed\nSpeak Up\non 12-11-2023",
			expected: ExtractedFields{
				Name:           "Amir Khan",
				CourseTitle:    "Speak Up",
				CompletionDate: "12-11-2023",
				Template:       "lined",
			},
		},
		{
			name: "inline layout keeps the recipient",
			text: "This is to certify that Amir Khan has completed the Security Awareness course on March 5, 2024",
			expected: ExtractedFields{
				Name:           "Amir Khan",
				CourseTitle:    "Security Awareness course",
				CompletionDate: "March 5, 2024",
				Template:       "inline-named",
			},
		},
		{
			name: "inline layout without a recipient",
			text: "This is to certify that\nthe holder has completed Speak Up on 4 July 2024",
			expected: ExtractedFields{
				CourseTitle:    "Speak Up",
				CompletionDate: "4 July 2024",
				Template:       "inline",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, rej := ExtractFields(tt.text, DefaultTemplates())
			require.Nil(t, rej)
			assert.Equal(t, tt.expected, fields)
		})
	}
}

func TestExtractFields_NoMatch(t *testing.T) {
	_, rej := ExtractFields("nothing relevant", DefaultTemplates())
	require.NotNil(t, rej)
	assert.Equal(t, KindNoTemplateMatched, rej.Kind)
}

func TestExtractFields_RejectsLayoutsWithoutCourseStructure(t *testing.T) {
	for _, text := range []string{
		"This is to certify that\nhas completed\n--\nHealth and Safety",
		"This is to certify that\nJane Doe has completed\non\n01/02/2024",
	} {
		_, rej := ExtractFields(text, DefaultTemplates())
		require.NotNil(t, rej, text)
		assert.Equal(t, KindNoTemplateMatched, rej.Kind)
	}
}

func TestTemplate_NeverTakesADateAsTheCourse(t *testing.T) {
	tmpl := Template{Name: "loose", Course: NewRule(`has completed\s*\n([^\n]+)`, 1)}

	for _, text := range []string{"has completed\non", "has completed\n01/02/2024", "has completed\non 3 March 2024"} {
		_, ok := tmpl.Apply(text)
		assert.False(t, ok, text)
	}

	fields, ok := tmpl.Apply("has completed\nOnboarding")
	require.True(t, ok)
	assert.Equal(t, "Onboarding", fields.CourseTitle)
}

func TestTemplate_ApplyIsAllOrNothing(t *testing.T) {
	tmpl := Template{
		Name:   "needs-date",
		Course: NewRule(`has completed\s+(\S+)`, 1),
		Date:   NewRule(`on\s+`+datePattern, 1),
	}

	_, ok := tmpl.Apply("has completed Onboarding")
	assert.False(t, ok)

	fields, ok := tmpl.Apply("has completed Onboarding on 01/01/2024")
	require.True(t, ok)
	assert.Equal(t, "Onboarding", fields.CourseTitle)
	assert.Equal(t, "01/01/2024", fields.CompletionDate)
}

func TestTemplate_WithoutCourseRuleNeverApplies(t *testing.T) {
	_, ok := Template{Name: "empty"}.Apply(canonicalText)
	assert.False(t, ok)
}

func TestRule_FindMatchesAcrossLines(t *testing.T) {
	rule := NewRule(`start(.+)end`, 1)
	v, ok := rule.Find("prefix start\nmiddle\nend")
	require.True(t, ok)
	assert.Equal(t, "middle", v)
}

func TestRule_FindRejectsDecorationOnly(t *testing.T) {
	rule := NewRule(`x(.*)y`, 1)
	_, ok := rule.Find("x --- \n -- y")
	assert.False(t, ok)
}

func TestCleanCapture(t *testing.T) {
	assert.Equal(t, "Jane Doe", cleanCapture("\n---\n  Jane   Doe \n---"))
	assert.Equal(t, "Anti-Bribery", cleanCapture("— Anti-Bribery —"))
	assert.Equal(t, "", cleanCapture(" -- __ "))
}

func TestPrecheck(t *testing.T) {
	markers := DefaultMarkers()

	assert.Nil(t, Precheck(canonicalText, markers))

	rej := Precheck("BT Group\nThis is to certify that\nhas completed", markers)
	require.NotNil(t, rej)
	assert.Equal(t, []string{"Certificate of completion", "on"}, rej.MissingMarkers)
}

func TestMarker_CaseAndWordBoundaries(t *testing.T) {
	m := NewMarker("date", "on")
	assert.False(t, m.Present("completion"))
	assert.True(t, m.Present("completed on 1 May"))

	header := NewMarker("issuer", "BT Group")
	assert.False(t, header.Present("bt group"))
	assert.True(t, header.Present("(BT Group)"))
}

func TestNormalizeText(t *testing.T) {
	raw := "  BT Group \r\n\r\nCertificate of completion\r has ﬁnished\x00\n"
	assert.Equal(t, "BT Group\nCertificate of completion\nhas finished", NormalizeText(raw))
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "a\fb", JoinPages([]string{"a", "  ", "b"}, "\f"))
	assert.Equal(t, "", JoinPages(nil, DefaultPageSeparator))
}
