package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vbonduro/vistoria/internal/domain"
	"github.com/vbonduro/vistoria/internal/imaging"
)

// FallbackDescription is stored on a photo when no analysis is available.
const FallbackDescription = "Automatic analysis unavailable."

const analysisTimeout = 90 * time.Second

// AddRoomParams selects a template, a custom name, or both. A template with
// a Name keeps the template items under the custom name.
type AddRoomParams struct {
	Template string `json:"template,omitempty"`
	Name     string `json:"name,omitempty"`
}

func (s *InspectionService) AddRoom(ctx context.Context, id string, p AddRoomParams) (*domain.Room, error) {
	base := strings.TrimSpace(p.Name)
	var items []string
	if p.Template != "" {
		tmpl, ok := s.templates.Find(p.Template)
		if !ok {
			return nil, fmt.Errorf("%w: unknown room template %q", domain.ErrValidation, p.Template)
		}
		items = tmpl.Items
		if base == "" {
			base = tmpl.Name
		}
	}
	if base == "" {
		return nil, fmt.Errorf("%w: room name or template is required", domain.ErrValidation)
	}

	var room domain.Room
	_, err := s.commit(ctx, id, mutation{op: "add_room", start: true, fn: func(ins *domain.Inspection) error {
		room = domain.Room{
			ID:    domain.NewID(),
			Name:  domain.UniqueRoomName(ins.Rooms, base),
			Items: make([]domain.Item, 0, len(items)),
		}
		for _, name := range items {
			room.Items = append(room.Items, domain.NewItem(name))
		}
		ins.Rooms = append(ins.Rooms, room)
		return nil
	}})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *InspectionService) UpdateRoom(ctx context.Context, id, roomID string, u domain.RoomUpdate) (*domain.Room, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	var out domain.Room
	_, err := s.commit(ctx, id, mutation{op: "update_room", start: true, fn: func(ins *domain.Inspection) error {
		room, err := ins.FindRoom(roomID)
		if err != nil {
			return err
		}
		u.Apply(room)
		out = *room
		return nil
	}})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InspectionService) RemoveRoom(ctx context.Context, id, roomID string) error {
	_, err := s.commit(ctx, id, mutation{op: "remove_room", start: true, fn: func(ins *domain.Inspection) error {
		return ins.RemoveRoom(roomID)
	}})
	return err
}

func (s *InspectionService) AddItem(ctx context.Context, id, roomID, name string) (*domain.Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: item name is required", domain.ErrValidation)
	}
	item := domain.NewItem(name)
	_, err := s.commit(ctx, id, mutation{op: "add_item", start: true, fn: func(ins *domain.Inspection) error {
		room, err := ins.FindRoom(roomID)
		if err != nil {
			return err
		}
		room.Items = append(room.Items, item)
		return nil
	}})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *InspectionService) UpdateItem(ctx context.Context, id, roomID, itemID string, u domain.ItemUpdate) (*domain.Item, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	var out domain.Item
	_, err := s.commit(ctx, id, mutation{op: "update_item", start: true, fn: func(ins *domain.Inspection) error {
		item, err := ins.FindItem(roomID, itemID)
		if err != nil {
			return err
		}
		u.Apply(item)
		out = *item
		return nil
	}})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InspectionService) RemoveItem(ctx context.Context, id, roomID, itemID string) error {
	_, err := s.commit(ctx, id, mutation{op: "remove_item", start: true, fn: func(ins *domain.Inspection) error {
		return ins.RemoveItem(roomID, itemID)
	}})
	return err
}

// AddPhoto normalises data, asks the analyzer to describe it and attaches
// it to the item. A successful analysis is also appended to the item
// description as "[Photo HH:MM]: text". Analysis failures never fail the
// upload.
func (s *InspectionService) AddPhoto(ctx context.Context, id, roomID, itemID string, data []byte) (*domain.Photo, error) {
	ins, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ins.Status.IsEditable() {
		return nil, domain.ErrNotEditable
	}
	item, err := ins.FindItem(roomID, itemID)
	if err != nil {
		return nil, err
	}

	img, err := normalizePhoto(data)
	if err != nil {
		return nil, err
	}

	text, analyzed := s.describe(ctx, img, item.Name)
	photo := domain.Photo{
		ID:          domain.NewID(),
		Data:        img.Data,
		MimeType:    img.MIME,
		Description: text,
		Analyzed:    analyzed,
	}
	stamp := s.now().Format("15:04")

	_, err = s.commit(ctx, id, mutation{op: "add_photo", start: true, fn: func(ins *domain.Inspection) error {
		item, err := ins.FindItem(roomID, itemID)
		if err != nil {
			return err
		}
		item.Photos = append(item.Photos, photo)
		if analyzed {
			item.Description = appendParagraph(item.Description, fmt.Sprintf("[Photo %s]: %s", stamp, text))
		}
		return nil
	}})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// ReanalyzePhoto runs the analyzer again on a stored photo. Unlike AddPhoto
// a failed analysis is reported to the caller and nothing changes.
func (s *InspectionService) ReanalyzePhoto(ctx context.Context, id, roomID, itemID, photoID string) (*domain.Photo, error) {
	ins, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ins.Status.IsEditable() {
		return nil, domain.ErrNotEditable
	}
	item, err := ins.FindItem(roomID, itemID)
	if err != nil {
		return nil, err
	}
	photo := findPhoto(item, photoID)
	if photo == nil {
		return nil, fmt.Errorf("photo %q: %w", photoID, domain.ErrNotFound)
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("%w: no image analyzer configured", domain.ErrValidation)
	}

	actx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()
	text, err := s.analyzer.Describe(actx, bytes.NewReader(photo.Data), photo.MimeType, item.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze photo: %w", err)
	}

	var out domain.Photo
	_, err = s.commit(ctx, id, mutation{op: "reanalyze_photo", start: true, fn: func(ins *domain.Inspection) error {
		item, err := ins.FindItem(roomID, itemID)
		if err != nil {
			return err
		}
		p := findPhoto(item, photoID)
		if p == nil {
			return fmt.Errorf("photo %q: %w", photoID, domain.ErrNotFound)
		}
		p.Description = text
		p.Analyzed = true
		item.Description = appendParagraph(item.Description, "[Reanalysis]: "+text)
		out = *p
		return nil
	}})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InspectionService) RemovePhoto(ctx context.Context, id, roomID, itemID, photoID string) error {
	_, err := s.commit(ctx, id, mutation{op: "remove_photo", start: true, fn: func(ins *domain.Inspection) error {
		return ins.RemovePhoto(roomID, itemID, photoID)
	}})
	return err
}

func (s *InspectionService) SetMeterReading(ctx context.Context, id string, kind domain.MeterKind, value string) (*domain.MeterReading, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown meter kind %q", domain.ErrValidation, kind)
	}
	return s.upsertMeter(ctx, id, kind, domain.MeterUpdate{Value: &value})
}

func (s *InspectionService) SetMeterPhoto(ctx context.Context, id string, kind domain.MeterKind, data []byte) (*domain.MeterReading, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown meter kind %q", domain.ErrValidation, kind)
	}
	img, err := normalizePhoto(data)
	if err != nil {
		return nil, err
	}
	photo := &domain.Photo{ID: domain.NewID(), Data: img.Data, MimeType: img.MIME}
	return s.upsertMeter(ctx, id, kind, domain.MeterUpdate{Photo: photo})
}

func (s *InspectionService) upsertMeter(ctx context.Context, id string, kind domain.MeterKind, u domain.MeterUpdate) (*domain.MeterReading, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	var out domain.MeterReading
	_, err := s.commit(ctx, id, mutation{op: "set_meter", start: true, fn: func(ins *domain.Inspection) error {
		ins.Meters = domain.UpsertMeter(ins.Meters, kind, u)
		out = *domain.MeterByKind(ins.Meters, kind)
		return nil
	}})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddKey records a key set. Unset fields default to one "Main key" held by
// the agency.
func (s *InspectionService) AddKey(ctx context.Context, id string, u domain.KeySetUpdate) (*domain.KeySet, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	key := domain.KeySet{
		ID:          domain.NewID(),
		Description: "Main key",
		Quantity:    1,
		Location:    domain.LocationAgency,
	}
	u.Apply(&key)

	_, err := s.commit(ctx, id, mutation{op: "add_key", start: true, fn: func(ins *domain.Inspection) error {
		ins.Keys = append(ins.Keys, key)
		return nil
	}})
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *InspectionService) UpdateKey(ctx context.Context, id, keyID string, u domain.KeySetUpdate) (*domain.KeySet, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	var out domain.KeySet
	_, err := s.commit(ctx, id, mutation{op: "update_key", start: true, fn: func(ins *domain.Inspection) error {
		k, err := ins.FindKey(keyID)
		if err != nil {
			return err
		}
		u.Apply(k)
		out = *k
		return nil
	}})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InspectionService) RemoveKey(ctx context.Context, id, keyID string) error {
	_, err := s.commit(ctx, id, mutation{op: "remove_key", start: true, fn: func(ins *domain.Inspection) error {
		return ins.RemoveKey(keyID)
	}})
	return err
}

// SetSignature stores the client's signature image. Empty data clears it.
func (s *InspectionService) SetSignature(ctx context.Context, id string, data []byte) (*domain.Inspection, error) {
	var sig []byte
	if len(data) > 0 {
		img, err := normalizePhoto(data)
		if err != nil {
			return nil, err
		}
		sig = img.Data
	}
	return s.commit(ctx, id, mutation{op: "set_signature", start: true, fn: func(ins *domain.Inspection) error {
		ins.Signature = sig
		return nil
	}})
}

// Refine asks the analyzer to polish text. It returns text unchanged, and
// false, when no analyzer is configured or the call fails.
func (s *InspectionService) Refine(ctx context.Context, text string) (string, bool) {
	if strings.TrimSpace(text) == "" || s.analyzer == nil {
		return text, false
	}
	actx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()
	out, err := s.analyzer.Refine(actx, text)
	if err != nil {
		s.logger.Warn("text refinement failed", "error", err)
		return text, false
	}
	return out, true
}

// describe is best-effort: any failure yields the fallback text.
func (s *InspectionService) describe(ctx context.Context, img *imaging.Result, subject string) (string, bool) {
	if s.analyzer == nil {
		return FallbackDescription, false
	}
	actx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	start := s.now()
	text, err := s.analyzer.Describe(actx, bytes.NewReader(img.Data), img.MIME, subject)
	if err != nil {
		s.logger.Warn("photo analysis failed", "subject", subject, "error", err)
		return FallbackDescription, false
	}
	s.logger.Info("photo analysis complete", "subject", subject, "duration_ms", s.now().Sub(start).Milliseconds())
	return text, true
}

func normalizePhoto(data []byte) (*imaging.Result, error) {
	img, err := imaging.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable image: %v", domain.ErrValidation, err)
	}
	return img, nil
}

func findPhoto(item *domain.Item, photoID string) *domain.Photo {
	for i := range item.Photos {
		if item.Photos[i].ID == photoID {
			return &item.Photos[i]
		}
	}
	return nil
}

func appendParagraph(text, paragraph string) string {
	if strings.TrimSpace(text) == "" {
		return paragraph
	}
	return text + "\n\n" + paragraph
}
