package model

import "time"

// UnitKilogram is the only unit weights are stored in.
const UnitKilogram = "kg"

// WeightEntry is a single body-weight measurement.
type WeightEntry struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"index:idx_weight_user_time;not null"`
	RecordedAt time.Time `gorm:"index:idx_weight_user_time;not null"`
	Value      float64   `gorm:"not null"`
	Unit       string    `gorm:"not null;default:kg"`
	CreatedAt  time.Time
}
