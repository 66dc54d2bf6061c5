package verifier

import (
	"errors"
	"fmt"
	"strings"
)

// RejectionKind classifies why a document was not verified.
type RejectionKind string

const (
	KindMissingMarkers    RejectionKind = "missing_structural_markers"
	KindNoTemplateMatched RejectionKind = "no_template_matched"
	KindCourseNotApproved RejectionKind = "course_not_approved"
	KindNotPDF            RejectionKind = "not_a_pdf_document"
	KindProcessingError   RejectionKind = "processing_error"
)

// Rejection is the error returned for every document that fails verification.
// Only the fields relevant to Kind are populated.
type Rejection struct {
	Kind           RejectionKind `json:"kind"`
	Filename       string        `json:"filename,omitempty"`
	MissingMarkers []string      `json:"missing_markers,omitempty"`
	CourseTitle    string        `json:"course_title,omitempty"`
	Message        string        `json:"message,omitempty"`
	Cause          error         `json:"-"`
}

func (r *Rejection) Error() string {
	var detail string
	switch r.Kind {
	case KindMissingMarkers:
		detail = "missing structural markers: " + strings.Join(r.MissingMarkers, ", ")
	case KindNoTemplateMatched:
		detail = "no extraction template matched"
	case KindCourseNotApproved:
		detail = fmt.Sprintf("course %q is not approved", r.CourseTitle)
	case KindNotPDF:
		detail = "not a PDF document"
	default:
		detail = "processing error"
	}
	if r.Message != "" {
		detail += ": " + r.Message
	}
	if r.Cause != nil {
		detail += ": " + r.Cause.Error()
	}
	if r.Filename != "" {
		return r.Filename + ": " + detail
	}
	return detail
}

func (r *Rejection) Unwrap() error {
	return r.Cause
}

// NewMissingMarkers reports every marker phrase absent from the text.
func NewMissingMarkers(missing []string) *Rejection {
	return &Rejection{Kind: KindMissingMarkers, MissingMarkers: missing}
}

func NewNoTemplateMatched() *Rejection {
	return &Rejection{Kind: KindNoTemplateMatched}
}

func NewCourseNotApproved(title string) *Rejection {
	return &Rejection{Kind: KindCourseNotApproved, CourseTitle: title}
}

func NewNotPDF(cause error) *Rejection {
	return &Rejection{Kind: KindNotPDF, Cause: cause}
}

func NewProcessingError(message string, cause error) *Rejection {
	return &Rejection{Kind: KindProcessingError, Message: message, Cause: cause}
}

// AsRejection converts err into a Rejection. Errors that are not already
// rejections become processing errors. A nil error yields nil.
func AsRejection(err error) *Rejection {
	if err == nil {
		return nil
	}
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej
	}
	return NewProcessingError("", err)
}

func withFilename(rej *Rejection, filename string) *Rejection {
	out := *rej
	out.Filename = filename
	return &out
}
