package models

import (
	"time"
)

// HeliostatCatalog is one catalog entry per heliostat, recording which asset
// kinds were found in the heliostat directory when the catalog was generated.
type HeliostatCatalog struct {
	ID                     uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	HeliostatName          string    `gorm:"uniqueIndex;not null;size:64" json:"heliostat_name"`
	CatalogPath            string    `gorm:"size:512" json:"catalog_path"`
	CalibrationAvailable   bool      `json:"calibration_available"`
	DeflectometryAvailable bool      `json:"deflectometry_available"`
	PropertiesAvailable    bool      `json:"properties_available"`
	GeneratedAt            time.Time `gorm:"autoCreateTime" json:"generated_at"`
}

// TableName customizes the table name
func (HeliostatCatalog) TableName() string {
	return "heliostat_catalogs"
}
