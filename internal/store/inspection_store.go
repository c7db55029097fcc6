package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vbonduro/vistoria/internal/domain"
)

// InspectionStore persists inspections in SQLite. Rooms, meters and keys are
// stored as JSON text columns next to the scalar header fields.
type InspectionStore struct {
	db *sql.DB
}

func NewInspectionStore(db *sql.DB) *InspectionStore {
	return &InspectionStore{db: db}
}

const inspectionColumns = `id, address, client_name, client_email, scheduled_at, type, status,
	rooms, meters, keys, signature, notes, report_url, created_at, updated_at`

// Save inserts ins or replaces the stored row with the same id.
func (s *InspectionStore) Save(ctx context.Context, ins *domain.Inspection) error {
	rooms, meters, keys, err := encodeCollections(ins)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO inspections (`+inspectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			address      = excluded.address,
			client_name  = excluded.client_name,
			client_email = excluded.client_email,
			scheduled_at = excluded.scheduled_at,
			type         = excluded.type,
			status       = excluded.status,
			rooms        = excluded.rooms,
			meters       = excluded.meters,
			keys         = excluded.keys,
			signature    = excluded.signature,
			notes        = excluded.notes,
			report_url   = excluded.report_url,
			updated_at   = excluded.updated_at
	`, ins.ID, ins.Address, ins.ClientName, ins.ClientEmail, ins.ScheduledAt.UTC(),
		string(ins.Type), string(ins.Status), rooms, meters, keys, ins.Signature,
		ins.Notes, ins.ReportURL, ins.CreatedAt.UTC(), ins.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save inspection: %w", err)
	}
	return nil
}

// Get returns nil, nil when no inspection has the given id.
func (s *InspectionStore) Get(ctx context.Context, id string) (*domain.Inspection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+inspectionColumns+` FROM inspections WHERE id = ?`, id)
	ins, err := scanInspection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}
	return ins, nil
}

func (s *InspectionStore) List(ctx context.Context) ([]*domain.Inspection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inspectionColumns+` FROM inspections ORDER BY scheduled_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}
	defer rows.Close()

	var out []*domain.Inspection
	for rows.Next() {
		ins, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection: %w", err)
		}
		out = append(out, ins)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inspections: %w", err)
	}

	return out, nil
}

func (s *InspectionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM inspections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inspection: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("inspection %q: %w", id, domain.ErrNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInspection(sc scanner) (*domain.Inspection, error) {
	var (
		ins                 domain.Inspection
		typ, status         string
		rooms, meters, keys string
	)
	err := sc.Scan(&ins.ID, &ins.Address, &ins.ClientName, &ins.ClientEmail, &ins.ScheduledAt,
		&typ, &status, &rooms, &meters, &keys, &ins.Signature, &ins.Notes, &ins.ReportURL,
		&ins.CreatedAt, &ins.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ins.Type = domain.InspectionType(typ)
	ins.Status = domain.InspectionStatus(status)
	if err := decodeCollections(&ins, []byte(rooms), []byte(meters), []byte(keys)); err != nil {
		return nil, err
	}
	return &ins, nil
}

func encodeCollections(ins *domain.Inspection) (rooms, meters, keys string, err error) {
	r, err := json.Marshal(nonNil(ins.Rooms))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode rooms: %w", err)
	}
	m, err := json.Marshal(nonNil(ins.Meters))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode meters: %w", err)
	}
	k, err := json.Marshal(nonNil(ins.Keys))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode keys: %w", err)
	}
	return string(r), string(m), string(k), nil
}

// decodeCollections fills the JSON-backed slices. Empty columns decode to
// empty slices so callers never see nil collections.
func decodeCollections(ins *domain.Inspection, rooms, meters, keys []byte) error {
	ins.Rooms = []domain.Room{}
	ins.Meters = []domain.MeterReading{}
	ins.Keys = []domain.KeySet{}
	if len(rooms) > 0 {
		if err := json.Unmarshal(rooms, &ins.Rooms); err != nil {
			return fmt.Errorf("failed to decode rooms: %w", err)
		}
	}
	if len(meters) > 0 {
		if err := json.Unmarshal(meters, &ins.Meters); err != nil {
			return fmt.Errorf("failed to decode meters: %w", err)
		}
	}
	if len(keys) > 0 {
		if err := json.Unmarshal(keys, &ins.Keys); err != nil {
			return fmt.Errorf("failed to decode keys: %w", err)
		}
	}
	if ins.Rooms == nil {
		ins.Rooms = []domain.Room{}
	}
	if ins.Meters == nil {
		ins.Meters = []domain.MeterReading{}
	}
	if ins.Keys == nil {
		ins.Keys = []domain.KeySet{}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// EncodeCollections and DecodeCollections expose the JSON column codec to
// other backends so every store agrees on the stored shape.
func EncodeCollections(ins *domain.Inspection) (rooms, meters, keys []byte, err error) {
	r, m, k, err := encodeCollections(ins)
	if err != nil {
		return nil, nil, nil, err
	}
	return []byte(r), []byte(m), []byte(k), nil
}

func DecodeCollections(ins *domain.Inspection, rooms, meters, keys []byte) error {
	return decodeCollections(ins, rooms, meters, keys)
}
