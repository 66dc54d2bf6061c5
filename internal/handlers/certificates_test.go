package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/certificate-verifier/internal/models"
	"github.com/BerylCAtieno/certificate-verifier/internal/utils"
	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

type fakeService struct {
	got []*models.UploadRequest
}

func (f *fakeService) VerifyDocuments(_ context.Context, reqs []*models.UploadRequest) (*models.BatchResponse, error) {
	f.got = reqs
	resp := &models.BatchResponse{BatchID: "batch-1", Total: len(reqs)}
	for _, r := range reqs {
		resp.Results = append(resp.Results, models.VerificationResult{Filename: r.Filename, Status: models.StatusRejected})
		resp.Rejected++
	}
	return resp, nil
}

func (f *fakeService) RenderReport(ctx context.Context, reqs []*models.UploadRequest) ([]byte, *models.BatchResponse, error) {
	batch, err := f.VerifyDocuments(ctx, reqs)
	return []byte("PK-xlsx"), batch, err
}

func (f *fakeService) GetVerification(_ context.Context, id string) (*models.VerificationRecord, error) {
	if id != "rec-1" {
		return nil, utils.NewNotFoundError("Verification not found")
	}
	return &models.VerificationRecord{ID: id, Filename: "jane.pdf", Status: models.StatusVerified}, nil
}

func (f *fakeService) GetCertificateFile(ctx context.Context, id string) ([]byte, *models.VerificationRecord, error) {
	rec, err := f.GetVerification(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return []byte("%PDF-1.7"), rec, nil
}

func (f *fakeService) ListBatch(_ context.Context, batchID string) ([]models.VerificationRecord, error) {
	return []models.VerificationRecord{{ID: "rec-1", BatchID: batchID}}, nil
}

func (f *fakeService) Courses() []models.CourseResponse {
	return []models.CourseResponse{{Code: "DFT", Mode: string(verifier.ModePattern)}}
}

type upload struct {
	name string
	data string
}

func multipartBody(t *testing.T, files ...upload) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, f := range files {
		part, err := mw.CreateFormFile(FormField, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return body, mw.FormDataContentType()
}

func newHandler(svc *fakeService) *CertificateHandler {
	return NewCertificateHandler(svc, Limits{MaxFileSize: 64, MaxBatchFiles: 2}, utils.Discard())
}

func TestVerifyCertificates(t *testing.T) {
	svc := &fakeService{}
	h := newHandler(svc)

	body, ct := multipartBody(t, upload{"a.PDF", "%PDF-1.4"}, upload{"b.docx", "PK"})
	req := httptest.NewRequest(http.MethodPost, "/verify", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.VerifyCertificates(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)

	require.Len(t, svc.got, 2)
	assert.Equal(t, "application/pdf", svc.got[0].ContentType)
	assert.Equal(t, "%PDF-1.4", string(svc.got[0].File))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", svc.got[1].ContentType)
}

func TestVerifyCertificates_BadRequests(t *testing.T) {
	tests := []struct {
		name  string
		files []upload
		want  string
	}{
		{"no files", nil, "No files provided"},
		{"too many files", []upload{{"a.pdf", "x"}, {"b.pdf", "x"}, {"c.pdf", "x"}}, "At most 2 files"},
		{"file too large", []upload{{"a.pdf", strings.Repeat("x", 65)}}, "File size exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(&fakeService{})
			body, ct := multipartBody(t, tt.files...)
			req := httptest.NewRequest(http.MethodPost, "/verify", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()

			h.VerifyCertificates(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestVerifyCertificates_NotMultipart(t *testing.T) {
	h := newHandler(&fakeService{})
	req := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.VerifyCertificates(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid form data"}`, rec.Body.String())
}

func TestDownloadReport(t *testing.T) {
	h := newHandler(&fakeService{})
	body, ct := multipartBody(t, upload{"a.pdf", "%PDF"})
	req := httptest.NewRequest(http.MethodPost, "/report", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.DownloadReport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "batch-1", rec.Header().Get("X-Batch-ID"))
	assert.Equal(t, "1", rec.Header().Get("X-Rejected-Count"))
	assert.Equal(t, "PK-xlsx", rec.Body.String())
}

func TestGetCertificate(t *testing.T) {
	h := newHandler(&fakeService{})

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/certificates/rec-1", nil), map[string]string{"id": "rec-1"})
	rec := httptest.NewRecorder()
	h.GetCertificate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"filename":"jane.pdf"`)

	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/certificates/nope", nil), map[string]string{"id": "nope"})
	rec = httptest.NewRecorder()
	h.GetCertificate(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Verification not found"}`, rec.Body.String())
}

func TestGetCertificateFile(t *testing.T) {
	h := newHandler(&fakeService{})

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/certificates/rec-1/file", nil), map[string]string{"id": "rec-1"})
	rec := httptest.NewRecorder()
	h.GetCertificateFile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="jane.pdf"`)
	assert.Equal(t, "%PDF-1.7", rec.Body.String())
}

func TestGetBatchAndCourses(t *testing.T) {
	h := newHandler(&fakeService{})

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/batches/b1", nil), map[string]string{"id": "b1"})
	rec := httptest.NewRecorder()
	h.GetBatch(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"batch_id":"b1"`)

	rec = httptest.NewRecorder()
	h.ListCourses(rec, httptest.NewRequest(http.MethodGet, "/courses", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"code":"DFT","mode":"pattern","match":""}]`, rec.Body.String())
}

func TestDetermineContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", determineContentType("cert.PDF", "application/octet-stream"))
	assert.Equal(t, "text/plain", determineContentType("dump.txt", ""))
	assert.Equal(t, "application/x-pdf", determineContentType("noext", "application/x-pdf"))
}
