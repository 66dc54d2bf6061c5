package router

import (
	"net/http"

	"github.com/BerylCAtieno/certificate-verifier/internal/handlers"
	"github.com/BerylCAtieno/certificate-verifier/internal/middleware"
	"github.com/BerylCAtieno/certificate-verifier/internal/services"
	"github.com/BerylCAtieno/certificate-verifier/internal/utils"

	"github.com/gorilla/mux"
)

func NewRouter(certService services.CertificateService, limits handlers.Limits, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	certHandler := handlers.NewCertificateHandler(certService, limits, logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	api.HandleFunc("/courses", certHandler.ListCourses).Methods(http.MethodGet)

	// Certificate endpoints
	api.HandleFunc("/certificates/verify", certHandler.VerifyCertificates).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/certificates/report", certHandler.DownloadReport).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/certificates/{id}", certHandler.GetCertificate).Methods(http.MethodGet)
	api.HandleFunc("/certificates/{id}/file", certHandler.GetCertificateFile).Methods(http.MethodGet)

	api.HandleFunc("/batches/{id}", certHandler.GetBatch).Methods(http.MethodGet)

	return r
}
