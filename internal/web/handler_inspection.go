package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/vistoria/internal/domain"
)

type scheduleRequest struct {
	Address     string                `json:"address"`
	ClientName  string                `json:"client_name"`
	ClientEmail string                `json:"client_email"`
	ScheduledAt time.Time             `json:"scheduled_at"`
	Type        domain.InspectionType `json:"type"`
	Notes       string                `json:"notes"`
}

func (s *Server) handleListInspections(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleScheduleInspection(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ins, err := s.service.Schedule(r.Context(), domain.NewInspectionParams{
		Address:     req.Address,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		ScheduledAt: req.ScheduledAt,
		Type:        req.Type,
		Notes:       req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ins)
}

func (s *Server) handleGetInspection(w http.ResponseWriter, r *http.Request) {
	ins, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (s *Server) handleUpdateInspection(w http.ResponseWriter, r *http.Request) {
	var u domain.InspectionUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	ins, err := s.service.Update(r.Context(), r.PathValue("id"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (s *Server) handleDeleteInspection(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Templates())
}

type refineRequest struct {
	Text string `json:"text"`
}

type refineResponse struct {
	Text    string `json:"text"`
	Refined bool   `json:"refined"`
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	text, ok := s.service.Refine(r.Context(), req.Text)
	writeJSON(w, http.StatusOK, refineResponse{Text: text, Refined: ok})
}

func (s *Server) handleSetSignature(w http.ResponseWriter, r *http.Request) {
	data, err := s.readImage(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ins, err := s.service.SetSignature(r.Context(), r.PathValue("id"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (s *Server) handleClearSignature(w http.ResponseWriter, r *http.Request) {
	ins, err := s.service.SetSignature(r.Context(), r.PathValue("id"), nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}
