package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"discipline-bot/internal/model"
)

// WeightRepository stores body-weight measurements.
type WeightRepository struct {
	db *gorm.DB
}

func NewWeightRepository(db *gorm.DB) *WeightRepository {
	return &WeightRepository{db: db}
}

// Create inserts a measurement. Several entries on the same day are kept side by side.
func (r *WeightRepository) Create(ctx context.Context, entry *model.WeightEntry) error {
	entry.RecordedAt = entry.RecordedAt.UTC()
	if entry.Unit == "" {
		entry.Unit = model.UnitKilogram
	}
	return wrap("record weight", r.db.WithContext(ctx).Create(entry).Error)
}

// ListBetween returns entries with from <= recorded_at <= to, oldest first.
func (r *WeightRepository) ListBetween(ctx context.Context, userID uint, from, to time.Time) ([]model.WeightEntry, error) {
	var entries []model.WeightEntry
	err := r.between(ctx, userID, from, to).
		Order("recorded_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, wrap("list weights", err)
	}
	return entries, nil
}

func (r *WeightRepository) FirstBetween(ctx context.Context, userID uint, from, to time.Time) (*model.WeightEntry, error) {
	return r.one(r.between(ctx, userID, from, to).Order("recorded_at ASC, id ASC"), "first weight")
}

func (r *WeightRepository) LastBetween(ctx context.Context, userID uint, from, to time.Time) (*model.WeightEntry, error) {
	return r.one(r.between(ctx, userID, from, to).Order("recorded_at DESC, id DESC"), "last weight")
}

// Latest returns the most recent entry or nil when the user has none.
func (r *WeightRepository) Latest(ctx context.Context, userID uint) (*model.WeightEntry, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("recorded_at DESC, id DESC")
	return r.one(q, "latest weight")
}

func (r *WeightRepository) ListAll(ctx context.Context, userID uint) ([]model.WeightEntry, error) {
	var entries []model.WeightEntry
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("recorded_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, wrap("list weights", err)
	}
	return entries, nil
}

func (r *WeightRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.WeightEntry{}).Count(&n).Error; err != nil {
		return 0, wrap("count weights", err)
	}
	return n, nil
}

func (r *WeightRepository) between(ctx context.Context, userID uint, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND recorded_at >= ? AND recorded_at <= ?", userID, from.UTC(), to.UTC())
}

func (r *WeightRepository) one(q *gorm.DB, op string) (*model.WeightEntry, error) {
	var entry model.WeightEntry
	err := q.First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	return &entry, nil
}
