package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/vbonduro/vistoria/internal/domain"
)

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	// Rendering and uploading run to completion even if the client leaves.
	ctx := context.WithoutCancel(r.Context())
	res, err := s.service.Finalize(ctx, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ins, err := s.service.Sync(context.WithoutCancel(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.service.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// handleGetStoredReport serves a published report from the blob store.
func (s *Server) handleGetStoredReport(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		s.writeError(w, r, fmt.Errorf("%w: report storage disabled", domain.ErrNotFound))
		return
	}
	rc, mime, err := s.blobs.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer s.closeWithLog(rc, "stored report")

	w.Header().Set("Content-Type", mime)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Error("failed to stream report", "key", r.PathValue("key"), "error", err)
	}
}
