package model

import "time"

// CalorieEntry is one eaten portion in kcal. A day's intake is the sum of its entries.
type CalorieEntry struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"index:idx_calorie_user_time;not null"`
	RecordedAt time.Time `gorm:"index:idx_calorie_user_time;not null"`
	Kcal       int       `gorm:"not null"`
	CreatedAt  time.Time
}
