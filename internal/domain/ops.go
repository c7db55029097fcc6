package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random identifier. Identifiers are never reused, so a
// deleted entry's id cannot reappear in its collection.
func NewID() string {
	return uuid.NewString()
}

// UniqueRoomName returns base, or base suffixed with a counter when rooms
// already holds names starting with base.
func UniqueRoomName(rooms []Room, base string) string {
	count := 0
	for _, r := range rooms {
		if strings.HasPrefix(r.Name, base) {
			count++
		}
	}
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s %d", base, count+1)
}

// NewItem returns an item in the default condition.
func NewItem(name string) Item {
	return Item{
		ID:        NewID(),
		Name:      strings.TrimSpace(name),
		Condition: ConditionNew,
		Photos:    []Photo{},
	}
}

// UpsertMeter applies patch to the reading of the given kind, appending a new
// reading when none exists yet.
func UpsertMeter(meters []MeterReading, kind MeterKind, patch MeterUpdate) []MeterReading {
	for i := range meters {
		if meters[i].Kind == kind {
			patch.Apply(&meters[i])
			return meters
		}
	}
	m := MeterReading{Kind: kind}
	patch.Apply(&m)
	return append(meters, m)
}

func MeterByKind(meters []MeterReading, kind MeterKind) *MeterReading {
	for i := range meters {
		if meters[i].Kind == kind {
			return &meters[i]
		}
	}
	return nil
}

func (ins *Inspection) FindRoom(roomID string) (*Room, error) {
	for i := range ins.Rooms {
		if ins.Rooms[i].ID == roomID {
			return &ins.Rooms[i], nil
		}
	}
	return nil, notFound("room", roomID)
}

func (ins *Inspection) FindItem(roomID, itemID string) (*Item, error) {
	room, err := ins.FindRoom(roomID)
	if err != nil {
		return nil, err
	}
	for i := range room.Items {
		if room.Items[i].ID == itemID {
			return &room.Items[i], nil
		}
	}
	return nil, notFound("item", itemID)
}

func (ins *Inspection) FindKey(keyID string) (*KeySet, error) {
	for i := range ins.Keys {
		if ins.Keys[i].ID == keyID {
			return &ins.Keys[i], nil
		}
	}
	return nil, notFound("key set", keyID)
}

func (ins *Inspection) RemoveRoom(roomID string) error {
	rooms, ok := removeOne(ins.Rooms, func(r Room) bool { return r.ID == roomID })
	if !ok {
		return notFound("room", roomID)
	}
	ins.Rooms = rooms
	return nil
}

func (ins *Inspection) RemoveItem(roomID, itemID string) error {
	room, err := ins.FindRoom(roomID)
	if err != nil {
		return err
	}
	items, ok := removeOne(room.Items, func(it Item) bool { return it.ID == itemID })
	if !ok {
		return notFound("item", itemID)
	}
	room.Items = items
	return nil
}

func (ins *Inspection) RemovePhoto(roomID, itemID, photoID string) error {
	item, err := ins.FindItem(roomID, itemID)
	if err != nil {
		return err
	}
	photos, ok := removeOne(item.Photos, func(p Photo) bool { return p.ID == photoID })
	if !ok {
		return notFound("photo", photoID)
	}
	item.Photos = photos
	return nil
}

func (ins *Inspection) RemoveKey(keyID string) error {
	keys, ok := removeOne(ins.Keys, func(k KeySet) bool { return k.ID == keyID })
	if !ok {
		return notFound("key set", keyID)
	}
	ins.Keys = keys
	return nil
}

// removeOne drops the first element matching match, keeping sibling order.
func removeOne[T any](s []T, match func(T) bool) ([]T, bool) {
	i := slices.IndexFunc(s, match)
	if i < 0 {
		return s, false
	}
	return slices.Delete(s, i, i+1), true
}

// Clone returns a copy whose rooms, items, photos, meters and keys can be
// mutated without affecting ins. Image bytes are shared; they are never
// modified in place.
func (ins *Inspection) Clone() *Inspection {
	c := *ins
	c.Rooms = make([]Room, len(ins.Rooms))
	for i, r := range ins.Rooms {
		r.Items = make([]Item, len(ins.Rooms[i].Items))
		for j, it := range ins.Rooms[i].Items {
			it.Photos = slices.Clone(it.Photos)
			if it.Photos == nil {
				it.Photos = []Photo{}
			}
			r.Items[j] = it
		}
		c.Rooms[i] = r
	}
	c.Meters = make([]MeterReading, len(ins.Meters))
	for i, m := range ins.Meters {
		if m.Photo != nil {
			p := *m.Photo
			m.Photo = &p
		}
		c.Meters[i] = m
	}
	c.Keys = slices.Clone(ins.Keys)
	if c.Keys == nil {
		c.Keys = []KeySet{}
	}
	return &c
}

// MarkStarted moves a scheduled inspection into progress.
func (ins *Inspection) MarkStarted() {
	if ins.Status == StatusScheduled {
		ins.Status = StatusInProgress
	}
}

// Complete moves the inspection to completed. It fails when already completed.
func (ins *Inspection) Complete() error {
	if ins.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if !ins.Status.CanTransitionTo(StatusCompleted) {
		return fmt.Errorf("%w: cannot complete from status %q", ErrValidation, ins.Status)
	}
	ins.Status = StatusCompleted
	return nil
}
