package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInspection(t *testing.T) *Inspection {
	t.Helper()
	ins, err := NewInspection(NewInspectionParams{
		Address:     "Rua das Flores, 123",
		ClientName:  "Joana Silva",
		ScheduledAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}, time.Now())
	require.NoError(t, err)
	return ins
}

func TestNewInspectionDefaults(t *testing.T) {
	ins := newTestInspection(t)

	assert.NotEmpty(t, ins.ID)
	assert.Equal(t, TypeMoveIn, ins.Type)
	assert.Equal(t, StatusScheduled, ins.Status)
	assert.Empty(t, ins.Rooms)
	assert.NotNil(t, ins.Meters)
	assert.NotNil(t, ins.Keys)
}

func TestNewInspectionValidation(t *testing.T) {
	when := time.Now()
	tests := []struct {
		name   string
		params NewInspectionParams
	}{
		{"missing address", NewInspectionParams{ClientName: "A", ScheduledAt: when}},
		{"blank client", NewInspectionParams{Address: "x", ClientName: "  ", ScheduledAt: when}},
		{"missing date", NewInspectionParams{Address: "x", ClientName: "A"}},
		{"bad type", NewInspectionParams{Address: "x", ClientName: "A", ScheduledAt: when, Type: "weekly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInspection(tt.params, when)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUniqueRoomName(t *testing.T) {
	rooms := []Room{}
	assert.Equal(t, "Bedroom", UniqueRoomName(rooms, "Bedroom"))

	rooms = append(rooms, Room{Name: "Bedroom"})
	assert.Equal(t, "Bedroom 2", UniqueRoomName(rooms, "Bedroom"))

	rooms = append(rooms, Room{Name: "Bedroom 2"})
	assert.Equal(t, "Bedroom 3", UniqueRoomName(rooms, "Bedroom"))
	assert.Equal(t, "Kitchen", UniqueRoomName(rooms, "Kitchen"))
}

func TestUpsertMeterNeverDuplicatesKind(t *testing.T) {
	v1, v2, v3 := "100", "250", "7"
	var meters []MeterReading

	meters = UpsertMeter(meters, MeterWater, MeterUpdate{Value: &v1})
	require.Len(t, meters, 1)

	meters = UpsertMeter(meters, MeterElectric, MeterUpdate{Value: &v3})
	require.Len(t, meters, 2)

	meters = UpsertMeter(meters, MeterWater, MeterUpdate{Value: &v2})
	require.Len(t, meters, 2)
	assert.Equal(t, MeterWater, meters[0].Kind)
	assert.Equal(t, "250", meters[0].Value)

	seen := map[MeterKind]bool{}
	for _, m := range meters {
		assert.False(t, seen[m.Kind], "duplicate kind %s", m.Kind)
		seen[m.Kind] = true
	}
}

func TestUpsertMeterPhotoKeepsValue(t *testing.T) {
	v := "42"
	meters := UpsertMeter(nil, MeterGas, MeterUpdate{Value: &v})
	meters = UpsertMeter(meters, MeterGas, MeterUpdate{Photo: &Photo{ID: "p1"}})

	require.Len(t, meters, 1)
	assert.Equal(t, "42", meters[0].Value)
	require.NotNil(t, meters[0].Photo)
	assert.Equal(t, "p1", meters[0].Photo.ID)
}

func TestRemoveKeepsSiblingOrder(t *testing.T) {
	ins := newTestInspection(t)
	ins.Keys = []KeySet{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	require.NoError(t, ins.RemoveKey("b"))
	assert.Equal(t, []string{"a", "c", "d"}, keyIDs(ins.Keys))

	err := ins.RemoveKey("b")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, ins.Keys, 3)
}

func TestRemoveRoomAndItem(t *testing.T) {
	ins := newTestInspection(t)
	ins.Rooms = []Room{
		{ID: "r1", Name: "Kitchen", Items: []Item{{ID: "i1"}, {ID: "i2"}, {ID: "i3"}}},
		{ID: "r2", Name: "Bathroom"},
	}

	require.NoError(t, ins.RemoveItem("r1", "i2"))
	assert.Equal(t, "i1", ins.Rooms[0].Items[0].ID)
	assert.Equal(t, "i3", ins.Rooms[0].Items[1].ID)

	assert.ErrorIs(t, ins.RemoveItem("r1", "missing"), ErrNotFound)
	assert.ErrorIs(t, ins.RemoveItem("nope", "i1"), ErrNotFound)

	require.NoError(t, ins.RemoveRoom("r1"))
	require.Len(t, ins.Rooms, 1)
	assert.Equal(t, "r2", ins.Rooms[0].ID)
}

func TestRemovePhoto(t *testing.T) {
	ins := newTestInspection(t)
	ins.Rooms = []Room{{ID: "r", Items: []Item{{ID: "i", Photos: []Photo{{ID: "p1"}, {ID: "p2"}}}}}}

	require.NoError(t, ins.RemovePhoto("r", "i", "p1"))
	require.Len(t, ins.Rooms[0].Items[0].Photos, 1)
	assert.Equal(t, "p2", ins.Rooms[0].Items[0].Photos[0].ID)
}

func TestCloneIsIndependent(t *testing.T) {
	ins := newTestInspection(t)
	ins.Rooms = []Room{{ID: "r", Name: "Hall", Items: []Item{{ID: "i", Name: "Floor", Photos: []Photo{{ID: "p"}}}}}}
	ins.Meters = []MeterReading{{Kind: MeterGas, Photo: &Photo{ID: "m"}}}

	c := ins.Clone()
	c.Rooms[0].Name = "Changed"
	c.Rooms[0].Items[0].Photos[0].Description = "changed"
	c.Meters[0].Photo.ID = "changed"
	c.Keys = append(c.Keys, KeySet{ID: "k"})

	assert.Equal(t, "Hall", ins.Rooms[0].Name)
	assert.Empty(t, ins.Rooms[0].Items[0].Photos[0].Description)
	assert.Equal(t, "m", ins.Meters[0].Photo.ID)
	assert.Empty(t, ins.Keys)
}

func TestStatusTransitions(t *testing.T) {
	ins := newTestInspection(t)
	ins.MarkStarted()
	assert.Equal(t, StatusInProgress, ins.Status)

	require.NoError(t, ins.Complete())
	assert.Equal(t, StatusCompleted, ins.Status)
	assert.False(t, ins.Status.IsEditable())

	assert.ErrorIs(t, ins.Complete(), ErrAlreadyCompleted)

	ins.MarkStarted()
	assert.Equal(t, StatusCompleted, ins.Status)
}

func TestConditionTone(t *testing.T) {
	assert.Equal(t, ToneFavorable, ConditionNew.Tone())
	assert.Equal(t, ToneFavorable, ConditionGood.Tone())
	assert.Equal(t, ToneFair, ConditionFair.Tone())
	assert.Equal(t, ToneUnfavorable, ConditionPoor.Tone())
	assert.Equal(t, ToneUnfavorable, ConditionDamaged.Tone())
	assert.Equal(t, ToneUnfavorable, ConditionNotApplicable.Tone())
	assert.Equal(t, "N/A", ConditionNotApplicable.Label())
}

func TestUpdateStructs(t *testing.T) {
	empty := ""
	assert.ErrorIs(t, InspectionUpdate{Address: &empty}.Validate(), ErrValidation)
	assert.ErrorIs(t, RoomUpdate{Name: &empty}.Validate(), ErrValidation)

	bad := Condition("shiny")
	assert.ErrorIs(t, ItemUpdate{Condition: &bad}.Validate(), ErrValidation)

	neg := -1
	assert.ErrorIs(t, KeySetUpdate{Quantity: &neg}.Validate(), ErrValidation)

	ins := newTestInspection(t)
	notes := "gate code 1234"
	InspectionUpdate{Notes: &notes}.Apply(ins)
	assert.Equal(t, "gate code 1234", ins.Notes)
	assert.Equal(t, "Rua das Flores, 123", ins.Address)

	it := NewItem("Window")
	poor := ConditionPoor
	ItemUpdate{Condition: &poor}.Apply(&it)
	assert.Equal(t, ConditionPoor, it.Condition)
	assert.Equal(t, "Window", it.Name)
}

func keyIDs(keys []KeySet) []string {
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k.ID)
	}
	return ids
}

func TestMeterUpdateValidate(t *testing.T) {
	assert.ErrorIs(t, MeterUpdate{Photo: &Photo{ID: "p"}}.Validate(), ErrValidation)
	assert.NoError(t, MeterUpdate{Photo: &Photo{ID: "p", Data: []byte{1}}}.Validate())

	blank := ""
	assert.NoError(t, MeterUpdate{Value: &blank}.Validate())
	assert.NoError(t, MeterUpdate{}.Validate())
}
