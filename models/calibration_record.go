package models

import (
	"time"
)

// CalibrationRecord represents one heliostat calibration observation from
// calib_data.csv. The id column of the CSV is used as primary key so that
// re-importing the same file does not duplicate rows.
type CalibrationRecord struct {
	ID                  uint    `gorm:"primaryKey" json:"id"`
	FieldID             int     `json:"field_id"`
	HeliostatID         int     `gorm:"index;not null" json:"heliostat_id"`
	CameraID            int     `json:"camera_id"`
	CalibrationTargetID int     `json:"calibration_target_id"`
	System              string  `gorm:"size:255" json:"system"`
	Version             float64 `json:"version"`
	Axis1MotorPosition  float64 `json:"axis1_motor_position"`
	Axis2MotorPosition  float64 `json:"axis2_motor_position"`
	ImageOffsetX        float64 `json:"image_offset_x"`
	ImageOffsetY        float64 `json:"image_offset_y"`
	TargetOffsetE       float64 `json:"target_offset_e"`
	TargetOffsetN       float64 `json:"target_offset_n"`
	TargetOffsetU       float64 `json:"target_offset_u"`
	TrackingOffsetE     float64 `json:"tracking_offset_e"`
	TrackingOffsetU     float64 `json:"tracking_offset_u"`
	SunPosE             float64 `json:"sun_pos_e"`
	SunPosN             float64 `json:"sun_pos_n"`
	SunPosU             float64 `json:"sun_pos_u"`
	LastScore           float64 `json:"last_score"`
	IsDeleted           bool    `json:"is_deleted"`
	// CreatedAt/UpdatedAt come from the CSV, not from gorm's timestamp
	// tracking.
	CreatedAt time.Time `gorm:"index;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`

	// Derived columns, filled after import.
	Azimuth    float64 `json:"azimuth"`
	Elevation  float64 `json:"elevation"`
	SplitHour  *string `gorm:"size:16" json:"split_hour"`
	SplitMonth *string `gorm:"size:16" json:"split_month"`
}

// TableName customizes the table name
func (CalibrationRecord) TableName() string {
	return "calibration_records"
}

// GetAllModels returns all models for migration
func GetAllModels() []interface{} {
	return []interface{}{
		&CalibrationRecord{},
		&HeliostatCatalog{},
	}
}
