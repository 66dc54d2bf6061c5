package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

const (
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

// VerificationRecord is one persisted verification outcome.
type VerificationRecord struct {
	ID               string     `json:"id" db:"id"`
	BatchID          string     `json:"batch_id" db:"batch_id"`
	Position         int        `json:"position" db:"position"`
	Filename         string     `json:"filename" db:"filename"`
	FileHash         string     `json:"file_hash" db:"file_hash"`
	FileSize         int64      `json:"file_size" db:"file_size"`
	Status           string     `json:"status" db:"status"`
	Name             string     `json:"name,omitempty" db:"name"`
	CourseTitle      string     `json:"course_title,omitempty" db:"course_title"`
	CourseCode       string     `json:"course_code,omitempty" db:"course_code"`
	Category         string     `json:"category,omitempty" db:"category"`
	CompletionDate   string     `json:"completion_date,omitempty" db:"completion_date"`
	Template         string     `json:"template,omitempty" db:"template"`
	RejectionKind    string     `json:"rejection_kind,omitempty" db:"rejection_kind"`
	RejectionMessage string     `json:"rejection_message,omitempty" db:"rejection_message"`
	MissingMarkers   StringList `json:"missing_markers,omitempty" db:"missing_markers"`
	S3Key            string     `json:"s3_key,omitempty" db:"s3_key"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// StringList is stored as a JSON array in a TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type %T for StringList", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if len(out) == 0 {
		out = nil
	}
	*l = out
	return nil
}

type UploadRequest struct {
	File        []byte
	Filename    string
	ContentType string
}

// VerificationResult is the API view of one document's outcome.
type VerificationResult struct {
	ID          string                        `json:"id"`
	Filename    string                        `json:"filename"`
	Status      string                        `json:"status"`
	Certificate *verifier.VerifiedCertificate `json:"certificate,omitempty"`
	Rejection   *verifier.Rejection           `json:"rejection,omitempty"`
	Message     string                        `json:"message,omitempty"`
	RawText     string                        `json:"raw_text,omitempty"`
}

type BatchResponse struct {
	BatchID  string               `json:"batch_id"`
	Total    int                  `json:"total"`
	Verified int                  `json:"verified"`
	Rejected int                  `json:"rejected"`
	Results  []VerificationResult `json:"results"`
}

// Certificates returns the verified certificates of the batch in upload order.
func (b *BatchResponse) Certificates() []verifier.VerifiedCertificate {
	var out []verifier.VerifiedCertificate
	for _, r := range b.Results {
		if r.Certificate != nil {
			out = append(out, *r.Certificate)
		}
	}
	return out
}

type CourseResponse struct {
	Code      string `json:"code"`
	Category  string `json:"category,omitempty"`
	Mode      string `json:"mode"`
	Match     string `json:"match"`
	Canonical string `json:"canonical,omitempty"`
}
