package domain

import (
	"strings"
	"time"
)

// NewInspectionParams carries the scheduling form.
type NewInspectionParams struct {
	Address     string
	ClientName  string
	ClientEmail string
	ScheduledAt time.Time
	Type        InspectionType
	Notes       string
}

// NewInspection validates params and returns a scheduled inspection with a
// fresh identifier.
func NewInspection(p NewInspectionParams, now time.Time) (*Inspection, error) {
	address := strings.TrimSpace(p.Address)
	client := strings.TrimSpace(p.ClientName)
	if address == "" {
		return nil, invalid("address", "is required")
	}
	if client == "" {
		return nil, invalid("client_name", "is required")
	}
	if p.ScheduledAt.IsZero() {
		return nil, invalid("scheduled_at", "is required")
	}
	typ := p.Type
	if typ == "" {
		typ = TypeMoveIn
	}
	if !typ.Valid() {
		return nil, invalid("type", "must be move_in, move_out or periodic")
	}

	return &Inspection{
		ID:          NewID(),
		Address:     address,
		ClientName:  client,
		ClientEmail: strings.TrimSpace(p.ClientEmail),
		ScheduledAt: p.ScheduledAt,
		Type:        typ,
		Status:      StatusScheduled,
		Rooms:       []Room{},
		Meters:      []MeterReading{},
		Keys:        []KeySet{},
		Notes:       p.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// InspectionUpdate patches the header fields of an inspection. Nil fields are
// left untouched.
type InspectionUpdate struct {
	Address     *string         `json:"address,omitempty"`
	ClientName  *string         `json:"client_name,omitempty"`
	ClientEmail *string         `json:"client_email,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	Type        *InspectionType `json:"type,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
}

func (u InspectionUpdate) Validate() error {
	if u.Address != nil && strings.TrimSpace(*u.Address) == "" {
		return invalid("address", "must not be empty")
	}
	if u.ClientName != nil && strings.TrimSpace(*u.ClientName) == "" {
		return invalid("client_name", "must not be empty")
	}
	if u.ScheduledAt != nil && u.ScheduledAt.IsZero() {
		return invalid("scheduled_at", "must not be empty")
	}
	if u.Type != nil && !u.Type.Valid() {
		return invalid("type", "must be move_in, move_out or periodic")
	}
	return nil
}

func (u InspectionUpdate) Apply(ins *Inspection) {
	if u.Address != nil {
		ins.Address = strings.TrimSpace(*u.Address)
	}
	if u.ClientName != nil {
		ins.ClientName = strings.TrimSpace(*u.ClientName)
	}
	if u.ClientEmail != nil {
		ins.ClientEmail = strings.TrimSpace(*u.ClientEmail)
	}
	if u.ScheduledAt != nil {
		ins.ScheduledAt = *u.ScheduledAt
	}
	if u.Type != nil {
		ins.Type = *u.Type
	}
	if u.Notes != nil {
		ins.Notes = *u.Notes
	}
}

type RoomUpdate struct {
	Name *string `json:"name,omitempty"`
}

func (u RoomUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return invalid("name", "must not be empty")
	}
	return nil
}

func (u RoomUpdate) Apply(r *Room) {
	if u.Name != nil {
		r.Name = strings.TrimSpace(*u.Name)
	}
}

type ItemUpdate struct {
	Name        *string    `json:"name,omitempty"`
	Condition   *Condition `json:"condition,omitempty"`
	Description *string    `json:"description,omitempty"`
}

func (u ItemUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if u.Condition != nil && !u.Condition.Valid() {
		return invalid("condition", "is not a known condition")
	}
	return nil
}

func (u ItemUpdate) Apply(it *Item) {
	if u.Name != nil {
		it.Name = strings.TrimSpace(*u.Name)
	}
	if u.Condition != nil {
		it.Condition = *u.Condition
	}
	if u.Description != nil {
		it.Description = *u.Description
	}
}

type KeySetUpdate struct {
	Description *string      `json:"description,omitempty"`
	Quantity    *int         `json:"quantity,omitempty"`
	Location    *KeyLocation `json:"location,omitempty"`
}

func (u KeySetUpdate) Validate() error {
	if u.Quantity != nil && *u.Quantity < 0 {
		return invalid("quantity", "must not be negative")
	}
	if u.Location != nil && !u.Location.Valid() {
		return invalid("location", "is not a known location")
	}
	return nil
}

func (u KeySetUpdate) Apply(k *KeySet) {
	if u.Description != nil {
		k.Description = *u.Description
	}
	if u.Quantity != nil {
		k.Quantity = *u.Quantity
	}
	if u.Location != nil {
		k.Location = *u.Location
	}
}

// MeterUpdate patches a reading. A nil Photo keeps the existing one.
type MeterUpdate struct {
	Value *string
	Photo *Photo
}

func (u MeterUpdate) Validate() error {
	if u.Photo != nil && len(u.Photo.Data) == 0 {
		return invalid("photo", "must not be empty")
	}
	return nil
}

func (u MeterUpdate) Apply(m *MeterReading) {
	if u.Value != nil {
		m.Value = strings.TrimSpace(*u.Value)
	}
	if u.Photo != nil {
		p := *u.Photo
		m.Photo = &p
	}
}
