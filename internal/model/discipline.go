package model

import "time"

const (
	StatusDone   = "done"
	StatusMissed = "missed"

	// TaskWorkout is the task logged by /log and counted against the schedule.
	TaskWorkout = "workout"
)

// DisciplineEntry records whether a task was done or missed at a moment.
// A repeated (user, task, moment) overwrites the previous status.
type DisciplineEntry struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"uniqueIndex:idx_discipline_user_task_time;not null"`
	Task        string    `gorm:"uniqueIndex:idx_discipline_user_task_time;not null"`
	OccurredAt  time.Time `gorm:"uniqueIndex:idx_discipline_user_task_time;not null"`
	Status      string    `gorm:"not null"`
	DurationMin *int
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
