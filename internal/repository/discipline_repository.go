package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"discipline-bot/internal/model"
)

// DisciplineRepository stores done/missed marks for tasks.
type DisciplineRepository struct {
	db *gorm.DB
}

func NewDisciplineRepository(db *gorm.DB) *DisciplineRepository {
	return &DisciplineRepository{db: db}
}

// StatusCounts holds done and missed totals for one task.
type StatusCounts struct {
	Done   int
	Missed int
}

// Upsert inserts the entry or, if the user already logged the same task at
// the same moment, replaces its status, duration and notes.
func (r *DisciplineRepository) Upsert(ctx context.Context, entry *model.DisciplineEntry) error {
	entry.OccurredAt = entry.OccurredAt.UTC()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "task"}, {Name: "occurred_at"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "duration_min", "notes", "updated_at"}),
	}).Create(entry).Error
	return wrap("record discipline event", err)
}

// ListBetween returns entries with from <= occurred_at <= to, oldest first.
func (r *DisciplineRepository) ListBetween(ctx context.Context, userID uint, from, to time.Time) ([]model.DisciplineEntry, error) {
	var entries []model.DisciplineEntry
	err := r.between(ctx, userID, from, to).
		Order("occurred_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, wrap("list discipline", err)
	}
	return entries, nil
}

// CountByStatus groups one task's entries in the range by status.
func (r *DisciplineRepository) CountByStatus(ctx context.Context, userID uint, task string, from, to time.Time) (StatusCounts, error) {
	var rows []struct {
		Status string
		N      int
	}
	err := r.between(ctx, userID, from, to).
		Model(&model.DisciplineEntry{}).
		Where("task = ?", task).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return StatusCounts{}, wrap("count discipline", err)
	}

	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case model.StatusDone:
			counts.Done = row.N
		case model.StatusMissed:
			counts.Missed = row.N
		}
	}
	return counts, nil
}

// CountDoneByTask returns the number of done marks per task in the range.
func (r *DisciplineRepository) CountDoneByTask(ctx context.Context, userID uint, from, to time.Time) (map[string]int, error) {
	var rows []struct {
		Task string
		N    int
	}
	err := r.between(ctx, userID, from, to).
		Model(&model.DisciplineEntry{}).
		Where("status = ?", model.StatusDone).
		Select("task, COUNT(*) AS n").
		Group("task").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("count discipline", err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Task] = row.N
	}
	return out, nil
}

func (r *DisciplineRepository) ListAll(ctx context.Context, userID uint) ([]model.DisciplineEntry, error) {
	var entries []model.DisciplineEntry
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("occurred_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, wrap("list discipline", err)
	}
	return entries, nil
}

func (r *DisciplineRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.DisciplineEntry{}).Count(&n).Error; err != nil {
		return 0, wrap("count discipline", err)
	}
	return n, nil
}

func (r *DisciplineRepository) between(ctx context.Context, userID uint, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND occurred_at >= ? AND occurred_at <= ?", userID, from.UTC(), to.UTC())
}
