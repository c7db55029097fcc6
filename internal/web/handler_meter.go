package web

import (
	"net/http"

	"github.com/vbonduro/vistoria/internal/domain"
)

type meterRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleSetMeterReading(w http.ResponseWriter, r *http.Request) {
	var req meterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind := domain.MeterKind(r.PathValue("kind"))
	m, err := s.service.SetMeterReading(r.Context(), r.PathValue("id"), kind, req.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleSetMeterPhoto(w http.ResponseWriter, r *http.Request) {
	data, err := s.readImage(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kind := domain.MeterKind(r.PathValue("kind"))
	m, err := s.service.SetMeterPhoto(r.Context(), r.PathValue("id"), kind, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleAddKey(w http.ResponseWriter, r *http.Request) {
	var u domain.KeySetUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	key, err := s.service.AddKey(r.Context(), r.PathValue("id"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

func (s *Server) handleUpdateKey(w http.ResponseWriter, r *http.Request) {
	var u domain.KeySetUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	key, err := s.service.UpdateKey(r.Context(), r.PathValue("id"), r.PathValue("keyID"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (s *Server) handleRemoveKey(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveKey(r.Context(), r.PathValue("id"), r.PathValue("keyID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
