package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/vistoria/internal/domain"
)

func TestRecordRoundTrip(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	ins := &domain.Inspection{
		ID:          "abc",
		Address:     "Rua das Flores, 123",
		ClientName:  "Joana",
		ScheduledAt: time.Date(2026, 5, 4, 9, 30, 0, 0, loc),
		Type:        domain.TypeMoveOut,
		Status:      domain.StatusInProgress,
		Rooms:       []domain.Room{{ID: "r", Name: "Kitchen", Items: []domain.Item{{ID: "i", Name: "Sink", Condition: domain.ConditionGood, Photos: []domain.Photo{}}}}},
		Meters:      []domain.MeterReading{{Kind: domain.MeterElectric, Value: "1234"}},
		Keys:        []domain.KeySet{{ID: "k", Description: "Main key", Quantity: 1, Location: domain.LocationAgency}},
		Notes:       "n",
	}

	rec, err := toRecord(ins)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, rec.ScheduledAt.Location())
	assert.JSONEq(t, `[{"kind":"electric","value":"1234"}]`, string(rec.Meters))
	assert.Equal(t, "move_out", rec.Type)

	back, err := fromRecord(rec)
	require.NoError(t, err)
	assert.True(t, ins.ScheduledAt.Equal(back.ScheduledAt))
	assert.Equal(t, ins.Rooms, back.Rooms)
	assert.Equal(t, ins.Meters, back.Meters)
	assert.Equal(t, ins.Keys, back.Keys)
	assert.Equal(t, domain.StatusInProgress, back.Status)
}

func TestRecordNilCollectionsStoredAsEmptyArrays(t *testing.T) {
	rec, err := toRecord(&domain.Inspection{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(rec.Rooms))
	assert.Equal(t, "[]", string(rec.Meters))
	assert.Equal(t, "[]", string(rec.Keys))
}

func TestFromRecordRejectsCorruptJSON(t *testing.T) {
	_, err := fromRecord(&inspectionRecord{ID: "x", Rooms: []byte("{oops")})
	assert.Error(t, err)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "inspections", inspectionRecord{}.TableName())
}
