package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/vistoria/internal/blobstore"
	"github.com/vbonduro/vistoria/internal/service"
)

type Server struct {
	service *service.InspectionService
	// blobs serves uploaded reports under /reports/ when they are stored
	// locally. Nil disables the route.
	blobs  blobstore.BlobStore
	mux    *http.ServeMux
	logger *slog.Logger
}

func NewServer(svc *service.InspectionService, blobs blobstore.BlobStore, logger *slog.Logger) *Server {
	s := &Server{
		service: svc,
		blobs:   blobs,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /templates", s.handleListTemplates)
	s.mux.HandleFunc("POST /refine", s.handleRefine)

	s.mux.HandleFunc("GET /inspections", s.handleListInspections)
	s.mux.HandleFunc("POST /inspections", s.handleScheduleInspection)
	s.mux.HandleFunc("GET /inspections/{id}", s.handleGetInspection)
	s.mux.HandleFunc("PATCH /inspections/{id}", s.handleUpdateInspection)
	s.mux.HandleFunc("DELETE /inspections/{id}", s.handleDeleteInspection)

	s.mux.HandleFunc("POST /inspections/{id}/rooms", s.handleAddRoom)
	s.mux.HandleFunc("PATCH /inspections/{id}/rooms/{roomID}", s.handleUpdateRoom)
	s.mux.HandleFunc("DELETE /inspections/{id}/rooms/{roomID}", s.handleRemoveRoom)

	s.mux.HandleFunc("POST /inspections/{id}/rooms/{roomID}/items", s.handleAddItem)
	s.mux.HandleFunc("PATCH /inspections/{id}/rooms/{roomID}/items/{itemID}", s.handleUpdateItem)
	s.mux.HandleFunc("DELETE /inspections/{id}/rooms/{roomID}/items/{itemID}", s.handleRemoveItem)

	s.mux.HandleFunc("POST /inspections/{id}/rooms/{roomID}/items/{itemID}/photos", s.handleAddPhoto)
	s.mux.HandleFunc("GET /inspections/{id}/rooms/{roomID}/items/{itemID}/photos/{photoID}", s.handleGetPhoto)
	s.mux.HandleFunc("POST /inspections/{id}/rooms/{roomID}/items/{itemID}/photos/{photoID}/analyze", s.handleReanalyzePhoto)
	s.mux.HandleFunc("DELETE /inspections/{id}/rooms/{roomID}/items/{itemID}/photos/{photoID}", s.handleRemovePhoto)

	s.mux.HandleFunc("PUT /inspections/{id}/meters/{kind}", s.handleSetMeterReading)
	s.mux.HandleFunc("POST /inspections/{id}/meters/{kind}/photo", s.handleSetMeterPhoto)

	s.mux.HandleFunc("POST /inspections/{id}/keys", s.handleAddKey)
	s.mux.HandleFunc("PATCH /inspections/{id}/keys/{keyID}", s.handleUpdateKey)
	s.mux.HandleFunc("DELETE /inspections/{id}/keys/{keyID}", s.handleRemoveKey)

	s.mux.HandleFunc("PUT /inspections/{id}/signature", s.handleSetSignature)
	s.mux.HandleFunc("DELETE /inspections/{id}/signature", s.handleClearSignature)

	s.mux.HandleFunc("POST /inspections/{id}/finalize", s.handleFinalize)
	s.mux.HandleFunc("POST /inspections/{id}/sync", s.handleSync)
	s.mux.HandleFunc("GET /inspections/{id}/report", s.handleDownloadReport)
	s.mux.HandleFunc("GET /reports/{key...}", s.handleGetStoredReport)
}

// securityHeaders sets the hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
