package slots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// snapshotRecord is the single-row home of the snapshot document.
type snapshotRecord struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Document  []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (snapshotRecord) TableName() string { return "slot_snapshots" }

// PostgresSnapshotStore upserts the snapshot document into a jsonb
// column. Selected by config for deployments that already run
// Postgres and do not want Redis as the source of durability.
type PostgresSnapshotStore struct {
	db  *gorm.DB
	key string
}

// NewPostgresSnapshotStore migrates the snapshot table and returns the
// store.
func NewPostgresSnapshotStore(db *gorm.DB, key string) (*PostgresSnapshotStore, error) {
	if key == "" {
		key = "slotly:snapshot"
	}
	if err := db.AutoMigrate(&snapshotRecord{}); err != nil {
		return nil, fmt.Errorf("snapshot table migration failed: %w", err)
	}
	return &PostgresSnapshotStore{db: db, key: key}, nil
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, doc *SnapshotDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot marshal error: %w", err)
	}
	record := snapshotRecord{Key: s.key, Document: data}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("snapshot upsert error: %w", err)
	}
	return nil
}

func (s *PostgresSnapshotStore) Load(ctx context.Context) (*SnapshotDocument, error) {
	var record snapshotRecord
	err := s.db.WithContext(ctx).First(&record, "key = ?", s.key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot query error: %w", err)
	}
	var doc SnapshotDocument
	if err := json.Unmarshal(record.Document, &doc); err != nil {
		return nil, fmt.Errorf("snapshot unmarshal error: %w", err)
	}
	return &doc, nil
}
