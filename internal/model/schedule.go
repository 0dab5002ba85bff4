package model

const (
	WeekAny  = "any"
	WeekEven = "even"
	WeekOdd  = "odd"
)

// ScheduleSlot is a planned workout: weekday 0 is Monday.
type ScheduleSlot struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"uniqueIndex:idx_schedule_slot;not null"`
	Weekday  int    `gorm:"uniqueIndex:idx_schedule_slot"`
	Time     string `gorm:"uniqueIndex:idx_schedule_slot;size:5"`
	WeekType string `gorm:"uniqueIndex:idx_schedule_slot;default:any"`
}
