// Package postgres stores inspections in a hosted PostgreSQL database
// through gorm. Rooms, meters and keys live in jsonb columns and share the
// JSON shape used by the SQLite store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vbonduro/vistoria/internal/domain"
	"github.com/vbonduro/vistoria/internal/store"
)

// inspectionRecord is the table row for one inspection.
type inspectionRecord struct {
	ID          string         `gorm:"column:id;primaryKey"`
	Address     string         `gorm:"column:address;not null"`
	ClientName  string         `gorm:"column:client_name;not null"`
	ClientEmail string         `gorm:"column:client_email;not null;default:''"`
	ScheduledAt time.Time      `gorm:"column:scheduled_at;not null;index"`
	Type        string         `gorm:"column:type;not null"`
	Status      string         `gorm:"column:status;not null;index"`
	Rooms       datatypes.JSON `gorm:"column:rooms;type:jsonb;not null"`
	Meters      datatypes.JSON `gorm:"column:meters;type:jsonb;not null"`
	Keys        datatypes.JSON `gorm:"column:keys;type:jsonb;not null"`
	Signature   []byte         `gorm:"column:signature"`
	Notes       string         `gorm:"column:notes;not null;default:''"`
	ReportURL   string         `gorm:"column:report_url;not null;default:''"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (inspectionRecord) TableName() string { return "inspections" }

type InspectionStore struct {
	db *gorm.DB
}

// Open connects to dsn and brings the schema up to date.
func Open(dsn string) (*InspectionStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return New(db), nil
}

func New(db *gorm.DB) *InspectionStore {
	return &InspectionStore{db: db}
}

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20260501_create_inspections",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&inspectionRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("inspections")
			},
		},
	})
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	return nil
}

func (s *InspectionStore) Save(ctx context.Context, ins *domain.Inspection) error {
	rec, err := toRecord(ins)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to save inspection: %w", err)
	}
	return nil
}

// Get returns nil, nil when no inspection has the given id.
func (s *InspectionStore) Get(ctx context.Context, id string) (*domain.Inspection, error) {
	var rec inspectionRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}
	return fromRecord(&rec)
}

func (s *InspectionStore) List(ctx context.Context) ([]*domain.Inspection, error) {
	var recs []inspectionRecord
	if err := s.db.WithContext(ctx).Order("scheduled_at ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}
	out := make([]*domain.Inspection, 0, len(recs))
	for i := range recs {
		ins, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, ins)
	}
	return out, nil
}

func (s *InspectionStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&inspectionRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete inspection: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("inspection %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

func toRecord(ins *domain.Inspection) (*inspectionRecord, error) {
	rooms, meters, keys, err := store.EncodeCollections(ins)
	if err != nil {
		return nil, err
	}
	return &inspectionRecord{
		ID:          ins.ID,
		Address:     ins.Address,
		ClientName:  ins.ClientName,
		ClientEmail: ins.ClientEmail,
		ScheduledAt: ins.ScheduledAt.UTC(),
		Type:        string(ins.Type),
		Status:      string(ins.Status),
		Rooms:       datatypes.JSON(rooms),
		Meters:      datatypes.JSON(meters),
		Keys:        datatypes.JSON(keys),
		Signature:   ins.Signature,
		Notes:       ins.Notes,
		ReportURL:   ins.ReportURL,
		CreatedAt:   ins.CreatedAt.UTC(),
		UpdatedAt:   ins.UpdatedAt.UTC(),
	}, nil
}

func fromRecord(rec *inspectionRecord) (*domain.Inspection, error) {
	ins := &domain.Inspection{
		ID:          rec.ID,
		Address:     rec.Address,
		ClientName:  rec.ClientName,
		ClientEmail: rec.ClientEmail,
		ScheduledAt: rec.ScheduledAt,
		Type:        domain.InspectionType(rec.Type),
		Status:      domain.InspectionStatus(rec.Status),
		Signature:   rec.Signature,
		Notes:       rec.Notes,
		ReportURL:   rec.ReportURL,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if err := store.DecodeCollections(ins, rec.Rooms, rec.Meters, rec.Keys); err != nil {
		return nil, fmt.Errorf("inspection %s: %w", rec.ID, err)
	}
	return ins, nil
}

func (s *InspectionStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get postgres handle: %w", err)
	}
	return sqlDB.Close()
}
