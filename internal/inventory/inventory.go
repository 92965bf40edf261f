// Package inventory maintains the local registry of known datasets.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/zulandar/caravan/internal/config"
	"github.com/zulandar/caravan/internal/models"
)

// DSN builds a MySQL-compatible DSN for a server-backed inventory.
func DSN(host string, port int, database string) string {
	return fmt.Sprintf("root@tcp(%s:%d)/%s?parseTime=true", host, port, database)
}

// Open connects to the inventory backend selected by cfg and migrates the
// schema. The sqlite backend creates its parent directory as needed.
func Open(cfg config.InventoryConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(DSN(cfg.Host, cfg.Port, cfg.Database)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("inventory: connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
		}
	default:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("inventory: create %s: %w", dir, err)
			}
		}
		db, err = gorm.Open(sqlite.Open(cfg.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("inventory: open %s: %w", cfg.Path, err)
		}
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AllModels returns the list of all inventory GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.DatasetRecord{},
		&models.SiblingRecord{},
	}
}

// AutoMigrate creates or updates all inventory tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("inventory: auto-migrate: %w", err)
	}
	return nil
}

// RecordDataset upserts a dataset record keyed by UUID.
func RecordDataset(db *gorm.DB, rec models.DatasetRecord) error {
	if rec.UUID == "" || rec.Path == "" {
		return fmt.Errorf("inventory: dataset uuid and path are required")
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{"path", "description", "annex", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("inventory: record dataset %s: %w", rec.UUID, err)
	}
	return nil
}

// RecordSibling upserts a sibling record keyed by (dataset, name).
func RecordSibling(db *gorm.DB, rec models.SiblingRecord) error {
	if rec.DatasetUUID == "" || rec.Name == "" {
		return fmt.Errorf("inventory: sibling dataset uuid and name are required")
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dataset_uuid"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("inventory: record sibling %s of %s: %w", rec.Name, rec.DatasetUUID, err)
	}
	return nil
}

// Datasets returns all recorded datasets ordered by path.
func Datasets(db *gorm.DB) ([]models.DatasetRecord, error) {
	var recs []models.DatasetRecord
	if err := db.Order("path").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("inventory: list datasets: %w", err)
	}
	return recs, nil
}

// DatasetByUUID returns one dataset record, or nil when unknown.
func DatasetByUUID(db *gorm.DB, uuid string) (*models.DatasetRecord, error) {
	var rec models.DatasetRecord
	err := db.First(&rec, "uuid = ?", uuid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: dataset %s: %w", uuid, err)
	}
	return &rec, nil
}

// Siblings returns all sibling records of a dataset ordered by name.
func Siblings(db *gorm.DB, datasetUUID string) ([]models.SiblingRecord, error) {
	var recs []models.SiblingRecord
	if err := db.Where("dataset_uuid = ?", datasetUUID).Order("name").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("inventory: siblings of %s: %w", datasetUUID, err)
	}
	return recs, nil
}
