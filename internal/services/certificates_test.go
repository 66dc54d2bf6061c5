package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/certificate-verifier/internal/models"
	"github.com/BerylCAtieno/certificate-verifier/internal/report"
	"github.com/BerylCAtieno/certificate-verifier/internal/storage"
	"github.com/BerylCAtieno/certificate-verifier/internal/utils"
	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

const canonicalText = "BT Group\nCertificate of completion\nThis is to certify that\n---\nJane Doe\n---\nhas completed\n---\nDon't Feed The 'ish\n---\non\n---\n01/02/2024"

// fakeExtractor treats the upload bytes as the text of a single page. Bytes
// starting with "NOTPDF" fail validation and "BROKEN" fail extraction.
type fakeExtractor struct{}

func (fakeExtractor) Validate(data []byte) error {
	if strings.HasPrefix(string(data), "NOTPDF") {
		return errors.New("bad header")
	}
	return nil
}

func (fakeExtractor) ExtractPages(data []byte) ([]string, error) {
	if strings.HasPrefix(string(data), "BROKEN") {
		return nil, errors.New("malformed xref")
	}
	return strings.Split(string(data), "\f"), nil
}

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*models.VerificationRecord
	err     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*models.VerificationRecord{}}
}

func (r *fakeRepo) Create(_ context.Context, rec *models.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records[rec.ID] = rec
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*models.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id], nil
}

func (r *fakeRepo) ListByBatch(_ context.Context, batchID string) ([]models.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.VerificationRecord
	for _, rec := range r.records {
		if rec.BatchID == batchID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (s *fakeStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeStorage) Download(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func newTestService(repo *fakeRepo, store *fakeStorage) CertificateService {
	var st storage.Storage
	if store != nil {
		st = store
	}
	return NewService(
		verifier.DefaultEngine(),
		fakeExtractor{},
		st,
		repo,
		report.NewRenderer(report.DefaultConfig()),
		Options{Concurrency: 2, MaxBatchFiles: 5, PageSeparator: "\n"},
		utils.Discard(),
	)
}

func pdf(name, text string) *models.UploadRequest {
	return &models.UploadRequest{File: []byte(text), Filename: name, ContentType: "application/pdf"}
}

func TestVerifyDocuments_MixedBatch(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	resp, err := svc.VerifyDocuments(context.Background(), []*models.UploadRequest{
		pdf("good.pdf", canonicalText),
		pdf("plain.pdf", "hello world"),
		{File: []byte(canonicalText), Filename: "cert.docx", ContentType: "application/msword"},
		pdf("renamed.pdf", "NOTPDF"+canonicalText),
		pdf("broken.pdf", "BROKEN"),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 1, resp.Verified)
	assert.Equal(t, 4, resp.Rejected)
	require.Len(t, resp.Results, 5)

	good := resp.Results[0]
	assert.Equal(t, models.StatusVerified, good.Status)
	require.NotNil(t, good.Certificate)
	assert.Equal(t, "DFT", good.Certificate.CourseCode)
	assert.Equal(t, canonicalText, good.RawText)

	kinds := []verifier.RejectionKind{}
	for _, r := range resp.Results[1:] {
		assert.Equal(t, models.StatusRejected, r.Status)
		require.NotNil(t, r.Rejection)
		assert.NotEmpty(t, r.Message)
		kinds = append(kinds, r.Rejection.Kind)
	}
	assert.Equal(t, []verifier.RejectionKind{
		verifier.KindMissingMarkers,
		verifier.KindNotPDF,
		verifier.KindNotPDF,
		verifier.KindProcessingError,
	}, kinds)

	assert.Len(t, repo.records, 5)
	stored := repo.records[good.ID]
	require.NotNil(t, stored)
	assert.Equal(t, resp.BatchID, stored.BatchID)
	assert.Equal(t, "Jane Doe", stored.Name)
	assert.Len(t, stored.FileHash, 64)

	missing := repo.records[resp.Results[1].ID]
	assert.Equal(t, string(verifier.KindMissingMarkers), missing.RejectionKind)
	assert.Contains(t, []string(missing.MissingMarkers), "BT Group")
	assert.Equal(t, 1, missing.Position)
}

func TestVerifyDocuments_JoinsPages(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)
	pages := strings.Replace(canonicalText, "has completed", "\fhas completed", 1)

	resp, err := svc.VerifyDocuments(context.Background(), []*models.UploadRequest{pdf("two-pages.pdf", pages)})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Verified)
}

func TestVerifyDocuments_Limits(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	_, err := svc.VerifyDocuments(context.Background(), nil)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)

	var many []*models.UploadRequest
	for i := 0; i < 6; i++ {
		many = append(many, pdf("x.pdf", canonicalText))
	}
	_, err = svc.VerifyDocuments(context.Background(), many)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}

func TestVerifyDocuments_CancelledContext(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := svc.VerifyDocuments(ctx, []*models.UploadRequest{pdf("a.pdf", canonicalText)})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, verifier.KindProcessingError, resp.Results[0].Rejection.Kind)
}

func TestVerifyDocuments_ArchivesAndCleansUp(t *testing.T) {
	store := newFakeStorage()
	repo := newFakeRepo()
	svc := newTestService(repo, store)

	resp, err := svc.VerifyDocuments(context.Background(), []*models.UploadRequest{pdf("good.pdf", canonicalText)})
	require.NoError(t, err)

	data, rec, err := svc.GetCertificateFile(context.Background(), resp.Results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, canonicalText, string(data))
	assert.Equal(t, "good.pdf", rec.Filename)

	repo.err = errors.New("disk full")
	_, err = svc.VerifyDocuments(context.Background(), []*models.UploadRequest{pdf("lost.pdf", canonicalText)})
	require.NoError(t, err)
	require.Len(t, store.deleted, 1)
	assert.True(t, strings.HasSuffix(store.deleted[0], "/lost.pdf"))
}

func TestGetVerificationAndBatch(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	resp, err := svc.VerifyDocuments(context.Background(), []*models.UploadRequest{
		pdf("a.pdf", canonicalText),
		pdf("b.pdf", "nope"),
	})
	require.NoError(t, err)

	rec, err := svc.GetVerification(context.Background(), resp.Results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, rec.Status)

	recs, err := svc.ListBatch(context.Background(), resp.BatchID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	var appErr *utils.AppError
	_, err = svc.GetVerification(context.Background(), "missing")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)

	_, err = svc.ListBatch(context.Background(), "missing")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)

	_, _, err = svc.GetCertificateFile(context.Background(), resp.Results[0].ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}

func TestRenderReport(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	data, batch, err := svc.RenderReport(context.Background(), []*models.UploadRequest{
		pdf("a.pdf", canonicalText),
		pdf("b.pdf", "nope"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Len(t, batch.Certificates(), 1)
}

func TestCourses(t *testing.T) {
	courses := newTestService(newFakeRepo(), nil).Courses()
	require.NotEmpty(t, courses)
	assert.Equal(t, "DFT", courses[0].Code)
	assert.Equal(t, "pattern", courses[0].Mode)
}
