package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"discipline-bot/internal/model"
)

// CalorieRepository stores eaten portions.
type CalorieRepository struct {
	db *gorm.DB
}

func NewCalorieRepository(db *gorm.DB) *CalorieRepository {
	return &CalorieRepository{db: db}
}

func (r *CalorieRepository) Create(ctx context.Context, entry *model.CalorieEntry) error {
	entry.RecordedAt = entry.RecordedAt.UTC()
	return wrap("record calories", r.db.WithContext(ctx).Create(entry).Error)
}

// SumBetween adds up kcal with from <= recorded_at < to.
func (r *CalorieRepository) SumBetween(ctx context.Context, userID uint, from, to time.Time) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.CalorieEntry{}).
		Where("user_id = ? AND recorded_at >= ? AND recorded_at < ?", userID, from.UTC(), to.UTC()).
		Select("COALESCE(SUM(kcal), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, wrap("sum calories", err)
	}
	return total, nil
}

func (r *CalorieRepository) ListAll(ctx context.Context, userID uint) ([]model.CalorieEntry, error) {
	var entries []model.CalorieEntry
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("recorded_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, wrap("list calories", err)
	}
	return entries, nil
}
