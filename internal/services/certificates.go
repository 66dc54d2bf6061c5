package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/certificate-verifier/internal/models"
	"github.com/BerylCAtieno/certificate-verifier/internal/report"
	"github.com/BerylCAtieno/certificate-verifier/internal/repository"
	"github.com/BerylCAtieno/certificate-verifier/internal/storage"
	"github.com/BerylCAtieno/certificate-verifier/internal/utils"
	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

// TextExtractor turns an uploaded document into per-page text.
type TextExtractor interface {
	Validate(data []byte) error
	ExtractPages(data []byte) ([]string, error)
}

type CertificateService interface {
	VerifyDocuments(ctx context.Context, reqs []*models.UploadRequest) (*models.BatchResponse, error)
	RenderReport(ctx context.Context, reqs []*models.UploadRequest) ([]byte, *models.BatchResponse, error)
	GetVerification(ctx context.Context, id string) (*models.VerificationRecord, error)
	GetCertificateFile(ctx context.Context, id string) ([]byte, *models.VerificationRecord, error)
	ListBatch(ctx context.Context, batchID string) ([]models.VerificationRecord, error)
	Courses() []models.CourseResponse
}

type Options struct {
	PageSeparator string
	Concurrency   int
	MaxBatchFiles int
}

type certificateService struct {
	engine    *verifier.Engine
	extractor TextExtractor
	storage   storage.Storage
	repo      repository.Repository
	renderer  *report.Renderer
	opts      Options
	logger    *utils.Logger
}

// NewService wires the verification pipeline. store may be nil, in which case
// uploads are not archived.
func NewService(
	engine *verifier.Engine,
	extractor TextExtractor,
	store storage.Storage,
	repo repository.Repository,
	renderer *report.Renderer,
	opts Options,
	logger *utils.Logger,
) CertificateService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.PageSeparator == "" {
		opts.PageSeparator = verifier.DefaultPageSeparator
	}

	return &certificateService{
		engine:    engine,
		extractor: extractor,
		storage:   store,
		repo:      repo,
		renderer:  renderer,
		opts:      opts,
		logger:    logger,
	}
}

// VerifyDocuments verifies every upload independently. A rejected or broken
// document never affects the others; results come back in upload order.
func (s *certificateService) VerifyDocuments(ctx context.Context, reqs []*models.UploadRequest) (*models.BatchResponse, error) {
	if len(reqs) == 0 {
		return nil, utils.NewBadRequestError("No files provided")
	}
	if s.opts.MaxBatchFiles > 0 && len(reqs) > s.opts.MaxBatchFiles {
		return nil, utils.NewBadRequestError(fmt.Sprintf("At most %d files can be verified at once", s.opts.MaxBatchFiles))
	}

	batchID := utils.GenerateID()
	results := make([]models.VerificationResult, len(reqs))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Concurrency)

	for i, req := range reqs {
		eg.Go(func() error {
			results[i] = s.verifyOne(gctx, batchID, i, req)
			return nil
		})
	}
	_ = eg.Wait()

	resp := &models.BatchResponse{
		BatchID: batchID,
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Status == models.StatusVerified {
			resp.Verified++
		} else {
			resp.Rejected++
		}
	}

	s.logger.Info("Batch verified",
		"batch_id", batchID,
		"total", resp.Total,
		"verified", resp.Verified,
		"rejected", resp.Rejected)

	return resp, nil
}

func (s *certificateService) verifyOne(ctx context.Context, batchID string, position int, req *models.UploadRequest) models.VerificationResult {
	id := utils.GenerateID()
	logCtx := s.logger.With("batch_id", batchID, "id", id, "filename", req.Filename)

	outcome := s.evaluate(ctx, req)

	rec := newRecord(id, batchID, position, req, outcome)

	if s.storage != nil {
		key := storage.ObjectKey(batchID, id, req.Filename)
		if err := s.storage.Upload(ctx, key, req.File, req.ContentType); err != nil {
			logCtx.Warn("Failed to archive certificate", "error", err)
		} else {
			rec.S3Key = key
		}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		logCtx.Error("Failed to save verification record", "error", err)
		if rec.S3Key != "" {
			_ = s.storage.Delete(ctx, rec.S3Key)
		}
	}

	result := models.VerificationResult{
		ID:          id,
		Filename:    req.Filename,
		Status:      rec.Status,
		Certificate: outcome.Certificate,
		Rejection:   outcome.Rejection,
		RawText:     outcome.RawText,
	}

	if outcome.Verified() {
		logCtx.Info("Certificate verified",
			"course_code", outcome.Certificate.CourseCode,
			"template", outcome.Certificate.Template)
	} else {
		result.Message = outcome.Rejection.Error()
		logCtx.Info("Certificate rejected",
			"kind", outcome.Rejection.Kind,
			"reason", result.Message)
	}

	return result
}

func (s *certificateService) evaluate(ctx context.Context, req *models.UploadRequest) verifier.Outcome {
	if err := ctx.Err(); err != nil {
		return verifier.Rejected(req.Filename, "", verifier.NewProcessingError("verification cancelled", err))
	}

	if !isPDFContentType(req.ContentType) {
		return verifier.Rejected(req.Filename, "", verifier.NewNotPDF(fmt.Errorf("unsupported content type %q", req.ContentType)))
	}

	if err := s.extractor.Validate(req.File); err != nil {
		return verifier.Rejected(req.Filename, "", verifier.NewNotPDF(err))
	}

	pages, err := s.extractor.ExtractPages(req.File)
	if err != nil {
		return verifier.Rejected(req.Filename, "", verifier.NewProcessingError("text extraction failed", err))
	}

	return s.engine.Evaluate(verifier.JoinPages(pages, s.opts.PageSeparator), req.Filename)
}

func newRecord(id, batchID string, position int, req *models.UploadRequest, outcome verifier.Outcome) *models.VerificationRecord {
	sum := sha256.Sum256(req.File)

	rec := &models.VerificationRecord{
		ID:        id,
		BatchID:   batchID,
		Position:  position,
		Filename:  req.Filename,
		FileHash:  hex.EncodeToString(sum[:]),
		FileSize:  int64(len(req.File)),
		CreatedAt: time.Now().UTC(),
	}

	if c := outcome.Certificate; c != nil {
		rec.Status = models.StatusVerified
		rec.Name = c.Name
		rec.CourseTitle = c.CourseTitle
		rec.CourseCode = c.CourseCode
		rec.Category = c.Category
		rec.CompletionDate = c.CompletionDate
		rec.Template = c.Template
		return rec
	}

	rej := outcome.Rejection
	rec.Status = models.StatusRejected
	rec.RejectionKind = string(rej.Kind)
	rec.RejectionMessage = rej.Error()
	rec.MissingMarkers = rej.MissingMarkers
	rec.CourseTitle = rej.CourseTitle
	return rec
}

func (s *certificateService) RenderReport(ctx context.Context, reqs []*models.UploadRequest) ([]byte, *models.BatchResponse, error) {
	batch, err := s.VerifyDocuments(ctx, reqs)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.renderer.Render(batch.Certificates())
	if err != nil {
		s.logger.Error("Failed to render report", "error", err, "batch_id", batch.BatchID)
		return nil, nil, utils.NewInternalError("Failed to render report")
	}

	return data, batch, nil
}

func (s *certificateService) GetVerification(ctx context.Context, id string) (*models.VerificationRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get verification", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve verification")
	}
	if rec == nil {
		return nil, utils.NewNotFoundError("Verification not found")
	}

	return rec, nil
}

func (s *certificateService) GetCertificateFile(ctx context.Context, id string) ([]byte, *models.VerificationRecord, error) {
	rec, err := s.GetVerification(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.storage == nil || rec.S3Key == "" {
		return nil, nil, utils.NewNotFoundError("Certificate file was not archived")
	}

	data, err := s.storage.Download(ctx, rec.S3Key)
	if err != nil {
		s.logger.Error("Failed to download certificate", "error", err, "s3_key", rec.S3Key)
		return nil, nil, utils.NewInternalError("Failed to retrieve certificate file")
	}

	return data, rec, nil
}

func (s *certificateService) ListBatch(ctx context.Context, batchID string) ([]models.VerificationRecord, error) {
	recs, err := s.repo.ListByBatch(ctx, batchID)
	if err != nil {
		s.logger.Error("Failed to list batch", "error", err, "batch_id", batchID)
		return nil, utils.NewInternalError("Failed to retrieve batch")
	}
	if len(recs) == 0 {
		return nil, utils.NewNotFoundError("Batch not found")
	}

	return recs, nil
}

func (s *certificateService) Courses() []models.CourseResponse {
	entries := s.engine.Registry().Entries()
	out := make([]models.CourseResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.CourseResponse{
			Code:      e.Code,
			Category:  e.Category,
			Mode:      string(e.Mode),
			Match:     e.Match,
			Canonical: e.Canonical,
		})
	}
	return out
}

func isPDFContentType(contentType string) bool {
	switch contentType {
	case "application/pdf", "application/x-pdf":
		return true
	}
	return false
}
