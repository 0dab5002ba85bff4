package model

import "time"

const (
	GenderMale   = "m"
	GenderFemale = "f"
)

const (
	ActivitySedentary  = "sedentary"
	ActivityLight      = "light"
	ActivityModerate   = "moderate"
	ActivityActive     = "active"
	ActivityVeryActive = "very_active"
)

const (
	GoalLose     = "lose"
	GoalMaintain = "maintain"
	GoalGain     = "gain"
)

// User stores Telegram user metadata and per-user settings.
type User struct {
	ID               uint  `gorm:"primaryKey"`
	TelegramID       int64 `gorm:"uniqueIndex"`
	FirstName        string
	LastName         string
	Username         string
	Timezone         string // IANA name, empty means the bot default
	TargetWeight     *float64
	WeekParityOffset int `gorm:"default:0"`

	// Body parameters for the calorie norm; all optional.
	HeightCm      *int
	BirthYear     *int
	Gender        string
	ActivityLevel string
	Goal          string

	CreatedAt time.Time
	UpdatedAt time.Time
}
