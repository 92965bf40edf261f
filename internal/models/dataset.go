// Package models defines the GORM models for the caravan inventory.
package models

import "time"

// DatasetRecord is one dataset known to this machine.
type DatasetRecord struct {
	UUID        string `gorm:"primaryKey;size:36"`
	Path        string `gorm:"not null;uniqueIndex;size:512"`
	Description string `gorm:"type:text"`
	Annex       bool   `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Siblings []SiblingRecord `gorm:"foreignKey:DatasetUUID"`
}

// SiblingRecord maps a dataset to a remote sibling URL under a name.
type SiblingRecord struct {
	DatasetUUID string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"primaryKey;size:64"`
	URL         string `gorm:"not null;size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
