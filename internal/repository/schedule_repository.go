package repository

import (
	"context"

	"gorm.io/gorm"

	"discipline-bot/internal/model"
)

// ScheduleRepository manages planned workout slots.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ReplaceWeekType swaps all slots of one week type for the given ones in a
// single transaction.
func (r *ScheduleRepository) ReplaceWeekType(ctx context.Context, userID uint, weekType string, slots []model.ScheduleSlot) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND week_type = ?", userID, weekType).
			Delete(&model.ScheduleSlot{}).Error; err != nil {
			return err
		}
		if len(slots) == 0 {
			return nil
		}
		for i := range slots {
			slots[i].UserID = userID
			slots[i].WeekType = weekType
		}
		return tx.Create(&slots).Error
	})
	return wrap("replace schedule", err)
}

func (r *ScheduleRepository) Clear(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.ScheduleSlot{}).Error
	return wrap("clear schedule", err)
}

func (r *ScheduleRepository) List(ctx context.Context, userID uint) ([]model.ScheduleSlot, error) {
	var slots []model.ScheduleSlot
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("weekday ASC, time ASC, week_type ASC").
		Find(&slots).Error
	if err != nil {
		return nil, wrap("list schedule", err)
	}
	return slots, nil
}
