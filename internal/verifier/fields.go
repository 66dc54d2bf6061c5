package verifier

// ExtractedFields holds the values pulled out by the winning template. Name and
// CompletionDate are empty when the template does not extract them.
type ExtractedFields struct {
	Name           string `json:"name,omitempty"`
	CourseTitle    string `json:"course_title"`
	CompletionDate string `json:"completion_date,omitempty"`
	Template       string `json:"template"`
}

// ExtractFields tries templates in order and returns the fields of the first
// one that fully resolves. Later templates are never consulted once one wins.
func ExtractFields(text string, templates []Template) (ExtractedFields, *Rejection) {
	for _, t := range templates {
		if fields, ok := t.Apply(text); ok {
			return fields, nil
		}
	}
	return ExtractedFields{}, NewNoTemplateMatched()
}
