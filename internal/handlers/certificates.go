package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/BerylCAtieno/certificate-verifier/internal/models"
	"github.com/BerylCAtieno/certificate-verifier/internal/services"
	"github.com/BerylCAtieno/certificate-verifier/internal/utils"
	"github.com/gorilla/mux"
)

const (
	// FormField is the multipart field carrying the uploaded certificates.
	FormField = "pdf_files"

	DefaultMaxFileSize   = 5 << 20 // 5MB
	DefaultMaxBatchFiles = 3

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// room for multipart boundaries and headers on top of the file bytes
	formOverhead = 1 << 20
)

type Limits struct {
	MaxFileSize   int64
	MaxBatchFiles int
}

type CertificateHandler struct {
	service services.CertificateService
	limits  Limits
	logger  *utils.Logger
}

func NewCertificateHandler(service services.CertificateService, limits Limits, logger *utils.Logger) *CertificateHandler {
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = DefaultMaxFileSize
	}
	if limits.MaxBatchFiles <= 0 {
		limits.MaxBatchFiles = DefaultMaxBatchFiles
	}

	return &CertificateHandler{
		service: service,
		limits:  limits,
		logger:  logger,
	}
}

func (h *CertificateHandler) VerifyCertificates(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.readUploads(w, r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp, err := h.service.VerifyDocuments(r.Context(), reqs)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// DownloadReport verifies the uploads and answers with an XLSX workbook of the
// verified certificates. Rejections are counted in response headers only.
func (h *CertificateHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.readUploads(w, r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	data, batch, err := h.service.RenderReport(r.Context(), reqs)
	if err != nil {
		h.respondError(w, err)
		return
	}

	filename := fmt.Sprintf("certificates-%s.xlsx", time.Now().UTC().Format("20060102-150405"))

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Batch-ID", batch.BatchID)
	w.Header().Set("X-Verified-Count", fmt.Sprint(batch.Verified))
	w.Header().Set("X-Rejected-Count", fmt.Sprint(batch.Rejected))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write report", "error", err, "batch_id", batch.BatchID)
	}
}

func (h *CertificateHandler) GetCertificate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Verification ID is required"))
		return
	}

	rec, err := h.service.GetVerification(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, rec)
}

func (h *CertificateHandler) GetCertificateFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Verification ID is required"))
		return
	}

	data, rec, err := h.service.GetCertificateFile(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", determineContentType(rec.Filename, "application/octet-stream"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(rec.Filename)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write certificate file", "error", err, "id", id)
	}
}

func (h *CertificateHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Batch ID is required"))
		return
	}

	recs, err := h.service.ListBatch(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, recs)
}

func (h *CertificateHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.Courses())
}

// readUploads parses the multipart form and reads every file under FormField.
// Files that are not PDFs are passed through; the service rejects them
// individually so the rest of the batch is still verified.
func (h *CertificateHandler) readUploads(w http.ResponseWriter, r *http.Request) ([]*models.UploadRequest, error) {
	maxBody := h.limits.MaxFileSize*int64(h.limits.MaxBatchFiles) + formOverhead

	// Check Content-Length header first to reject oversized requests early
	if r.ContentLength > maxBody {
		return nil, h.tooLarge()
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(maxBody); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return nil, h.tooLarge()
		}
		return nil, utils.NewBadRequestError("Invalid form data")
	}

	headers := r.MultipartForm.File[FormField]
	if len(headers) == 0 {
		return nil, utils.NewBadRequestError("No files provided")
	}
	if len(headers) > h.limits.MaxBatchFiles {
		return nil, utils.NewBadRequestError(fmt.Sprintf("At most %d files can be verified at once", h.limits.MaxBatchFiles))
	}

	reqs := make([]*models.UploadRequest, 0, len(headers))
	for _, header := range headers {
		req, err := h.readFile(header)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}

	return reqs, nil
}

func (h *CertificateHandler) readFile(header *multipart.FileHeader) (*models.UploadRequest, error) {
	if header.Size > h.limits.MaxFileSize {
		return nil, h.tooLarge()
	}

	file, err := header.Open()
	if err != nil {
		return nil, utils.NewInternalError("Failed to read file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.limits.MaxFileSize+1))
	if err != nil {
		return nil, utils.NewInternalError("Failed to read file")
	}
	if int64(len(data)) > h.limits.MaxFileSize {
		return nil, h.tooLarge()
	}

	contentType := determineContentType(header.Filename, header.Header.Get("Content-Type"))

	h.logger.Debug("Certificate upload",
		"filename", header.Filename,
		"size", len(data),
		"reported_content_type", header.Header.Get("Content-Type"),
		"determined_content_type", contentType)

	return &models.UploadRequest{
		File:        data,
		Filename:    header.Filename,
		ContentType: contentType,
	}, nil
}

func (h *CertificateHandler) tooLarge() *utils.AppError {
	limit := fmt.Sprintf("%d bytes", h.limits.MaxFileSize)
	if h.limits.MaxFileSize >= 1<<20 {
		limit = fmt.Sprintf("%dMB", h.limits.MaxFileSize>>20)
	}
	return utils.NewBadRequestError("File size exceeds " + limit + " limit")
}

// determineContentType prefers the file extension over the client's header,
// which browsers often leave empty or set to application/octet-stream.
func determineContentType(filename, headerContentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}

	return headerContentType
}

func (h *CertificateHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *CertificateHandler) respondError(w http.ResponseWriter, err error) {
	var status int
	var message string

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
		message = appErr.Message
	} else {
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	h.logger.Error("Request error", "status", status, "error", message)

	h.respondJSON(w, status, map[string]string{"error": message})
}
