package domain

import "time"

type InspectionType string

const (
	TypeMoveIn   InspectionType = "move_in"
	TypeMoveOut  InspectionType = "move_out"
	TypePeriodic InspectionType = "periodic"
)

func (t InspectionType) Valid() bool {
	switch t {
	case TypeMoveIn, TypeMoveOut, TypePeriodic:
		return true
	}
	return false
}

// InspectionStatus tracks an inspection through the visit workflow.
type InspectionStatus string

const (
	StatusScheduled  InspectionStatus = "scheduled"
	StatusInProgress InspectionStatus = "in_progress"
	StatusCompleted  InspectionStatus = "completed"
)

// IsEditable reports whether rooms, meters and keys may still change.
func (s InspectionStatus) IsEditable() bool {
	return s == StatusScheduled || s == StatusInProgress
}

// CanTransitionTo reports whether s may move to target. Completed is terminal.
func (s InspectionStatus) CanTransitionTo(target InspectionStatus) bool {
	switch s {
	case StatusScheduled:
		return target == StatusInProgress || target == StatusCompleted
	case StatusInProgress:
		return target == StatusCompleted
	default:
		return false
	}
}

type Condition string

const (
	ConditionNew           Condition = "new"
	ConditionGood          Condition = "good"
	ConditionFair          Condition = "fair"
	ConditionPoor          Condition = "poor"
	ConditionDamaged       Condition = "damaged"
	ConditionNotApplicable Condition = "not_applicable"
)

// Tone groups conditions for presentation.
type Tone int

const (
	ToneFavorable Tone = iota
	ToneFair
	ToneUnfavorable
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged, ConditionNotApplicable:
		return true
	}
	return false
}

func (c Condition) Label() string {
	switch c {
	case ConditionNew:
		return "New"
	case ConditionGood:
		return "Good"
	case ConditionFair:
		return "Fair"
	case ConditionPoor:
		return "Poor"
	case ConditionDamaged:
		return "Damaged"
	case ConditionNotApplicable:
		return "N/A"
	default:
		return string(c)
	}
}

func (c Condition) Tone() Tone {
	switch c {
	case ConditionNew, ConditionGood:
		return ToneFavorable
	case ConditionFair:
		return ToneFair
	default:
		return ToneUnfavorable
	}
}

type MeterKind string

const (
	MeterElectric MeterKind = "electric"
	MeterWater    MeterKind = "water"
	MeterGas      MeterKind = "gas"
)

// MeterKinds lists every kind in display order.
var MeterKinds = []MeterKind{MeterElectric, MeterWater, MeterGas}

func (k MeterKind) Valid() bool {
	switch k {
	case MeterElectric, MeterWater, MeterGas:
		return true
	}
	return false
}

func (k MeterKind) Label() string {
	switch k {
	case MeterElectric:
		return "Electricity (kWh)"
	case MeterWater:
		return "Water (m³)"
	case MeterGas:
		return "Gas (m³)"
	default:
		return string(k)
	}
}

type KeyLocation string

const (
	LocationAgency    KeyLocation = "agency"
	LocationConcierge KeyLocation = "concierge"
	LocationOwner     KeyLocation = "owner"
	LocationTenant    KeyLocation = "tenant"
)

func (l KeyLocation) Valid() bool {
	switch l {
	case LocationAgency, LocationConcierge, LocationOwner, LocationTenant:
		return true
	}
	return false
}

func (l KeyLocation) Label() string {
	switch l {
	case LocationAgency:
		return "Agency"
	case LocationConcierge:
		return "Concierge"
	case LocationOwner:
		return "Owner"
	case LocationTenant:
		return "Tenant"
	default:
		return string(l)
	}
}

type Photo struct {
	ID          string `json:"id"`
	Data        []byte `json:"data"`
	MimeType    string `json:"mime_type"`
	Description string `json:"description"`
	Analyzed    bool   `json:"analyzed"`
}

type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
	Photos      []Photo   `json:"photos"`
}

type Room struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

type MeterReading struct {
	Kind  MeterKind `json:"kind"`
	Value string    `json:"value"`
	Photo *Photo    `json:"photo,omitempty"`
}

type KeySet struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Quantity    int         `json:"quantity"`
	Location    KeyLocation `json:"location"`
}

type Inspection struct {
	ID          string           `json:"id"`
	Address     string           `json:"address"`
	ClientName  string           `json:"client_name"`
	ClientEmail string           `json:"client_email"`
	ScheduledAt time.Time        `json:"scheduled_at"`
	Type        InspectionType   `json:"type"`
	Status      InspectionStatus `json:"status"`
	Rooms       []Room           `json:"rooms"`
	Meters      []MeterReading   `json:"meters"`
	Keys        []KeySet         `json:"keys"`
	Signature   []byte           `json:"signature,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	ReportURL   string           `json:"report_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
