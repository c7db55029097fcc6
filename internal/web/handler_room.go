package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vbonduro/vistoria/internal/domain"
	"github.com/vbonduro/vistoria/internal/service"
)

func (s *Server) handleAddRoom(w http.ResponseWriter, r *http.Request) {
	var p service.AddRoomParams
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	room, err := s.service.AddRoom(r.Context(), r.PathValue("id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	var u domain.RoomUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	room, err := s.service.UpdateRoom(r.Context(), r.PathValue("id"), r.PathValue("roomID"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleRemoveRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveRoom(r.Context(), r.PathValue("id"), r.PathValue("roomID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addItemRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.service.AddItem(r.Context(), r.PathValue("id"), r.PathValue("roomID"), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var u domain.ItemUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.service.UpdateItem(r.Context(), r.PathValue("id"), r.PathValue("roomID"), r.PathValue("itemID"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	err := s.service.RemoveItem(r.Context(), r.PathValue("id"), r.PathValue("roomID"), r.PathValue("itemID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddPhoto(w http.ResponseWriter, r *http.Request) {
	data, err := s.readImage(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Analysis can outlive an impatient client; the photo is kept either way.
	ctx := context.WithoutCancel(r.Context())
	photo, err := s.service.AddPhoto(ctx, r.PathValue("id"), r.PathValue("roomID"), r.PathValue("itemID"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	ins, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := ins.FindItem(r.PathValue("roomID"), r.PathValue("itemID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	photoID := r.PathValue("photoID")
	for _, p := range item.Photos {
		if p.ID != photoID {
			continue
		}
		mime := p.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		w.Header().Set("Content-Type", mime)
		w.Header().Set("Cache-Control", "private, max-age=3600")
		_, _ = w.Write(p.Data)
		return
	}
	s.writeError(w, r, fmt.Errorf("%w: photo %s", domain.ErrNotFound, photoID))
}

func (s *Server) handleReanalyzePhoto(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	photo, err := s.service.ReanalyzePhoto(ctx, r.PathValue("id"), r.PathValue("roomID"), r.PathValue("itemID"), r.PathValue("photoID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

func (s *Server) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	err := s.service.RemovePhoto(r.Context(), r.PathValue("id"), r.PathValue("roomID"), r.PathValue("itemID"), r.PathValue("photoID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
