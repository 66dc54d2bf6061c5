package verifier

import (
	"fmt"
)

// Status of a verified certificate.
type Status string

const StatusVerified Status = "Verified"

// VerifiedCertificate is produced only when extraction and course validation
// both succeed.
type VerifiedCertificate struct {
	Filename       string `json:"filename"`
	Name           string `json:"name,omitempty"`
	CourseTitle    string `json:"course_title"`
	CourseCode     string `json:"course_code"`
	Category       string `json:"category,omitempty"`
	CompletionDate string `json:"completion_date,omitempty"`
	Template       string `json:"template"`
	Status         Status `json:"status"`
}

// Engine runs precheck, extraction and course validation against a fixed
// configuration. It holds no mutable state.
type Engine struct {
	markers   []Marker
	templates []Template
	registry  *Registry
}

func NewEngine(markers []Marker, templates []Template, registry *Registry) *Engine {
	return &Engine{
		markers:   append([]Marker(nil), markers...),
		templates: append([]Template(nil), templates...),
		registry:  registry,
	}
}

// DefaultEngine uses the built-in markers, templates and registry.
func DefaultEngine() *Engine {
	return NewEngine(DefaultMarkers(), DefaultTemplates(), DefaultRegistry())
}

// WithRegistry returns a copy of the engine that validates against registry.
func (e *Engine) WithRegistry(registry *Registry) *Engine {
	return NewEngine(e.markers, e.templates, registry)
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

// Verify checks raw certificate text. On failure the error is always a
// *Rejection carrying filename; a fault inside matching is reported as a
// processing error rather than a panic.
func (e *Engine) Verify(raw, filename string) (cert *VerifiedCertificate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cert = nil
			err = withFilename(NewProcessingError(fmt.Sprintf("verification fault: %v", r), nil), filename)
		}
	}()

	text := NormalizeText(raw)

	if rej := Precheck(text, e.markers); rej != nil {
		return nil, withFilename(rej, filename)
	}

	fields, rej := ExtractFields(text, e.templates)
	if rej != nil {
		return nil, withFilename(rej, filename)
	}

	course, rej := e.registry.Validate(fields.CourseTitle)
	if rej != nil {
		return nil, withFilename(rej, filename)
	}

	return &VerifiedCertificate{
		Filename:       filename,
		Name:           fields.Name,
		CourseTitle:    course.Title(fields.CourseTitle),
		CourseCode:     course.Code,
		Category:       course.Category,
		CompletionDate: fields.CompletionDate,
		Template:       fields.Template,
		Status:         StatusVerified,
	}, nil
}

// Outcome is the result of verifying one document. Exactly one of
// Certificate and Rejection is set.
type Outcome struct {
	Filename    string               `json:"filename"`
	Certificate *VerifiedCertificate `json:"certificate,omitempty"`
	Rejection   *Rejection           `json:"rejection,omitempty"`
	RawText     string               `json:"raw_text,omitempty"`
}

func (o Outcome) Verified() bool {
	return o.Certificate != nil
}

// Evaluate verifies raw and packages the result as an Outcome.
func (e *Engine) Evaluate(raw, filename string) Outcome {
	cert, err := e.Verify(raw, filename)
	if err != nil {
		return Rejected(filename, raw, err)
	}
	return Outcome{Filename: filename, Certificate: cert, RawText: raw}
}

// Rejected builds an Outcome for a document that failed before or during
// verification, such as one that is not a PDF. A nil err still yields a
// rejected outcome, reported as a processing error.
func Rejected(filename, raw string, err error) Outcome {
	rej := AsRejection(err)
	if rej == nil {
		rej = NewProcessingError("rejected without a reason", nil)
	}
	return Outcome{
		Filename:  filename,
		Rejection: withFilename(rej, filename),
		RawText:   raw,
	}
}

// Document is one item of a batch.
type Document struct {
	Filename string
	Text     string
}

// VerifyBatch verifies each document independently and returns one outcome
// per document in input order. A failure never stops the batch.
func (e *Engine) VerifyBatch(docs []Document) []Outcome {
	out := make([]Outcome, len(docs))
	for i, d := range docs {
		out[i] = e.Evaluate(d.Text, d.Filename)
	}
	return out
}
