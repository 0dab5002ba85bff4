package service

import (
	"context"
	"time"

	"discipline-bot/internal/model"
	"discipline-bot/internal/repository"
)

// History holds one user's entries in a time range, oldest first.
type History struct {
	From       time.Time
	To         time.Time
	Weights    []model.WeightEntry
	Discipline []model.DisciplineEntry
}

// Empty reports whether the range holds no entries at all.
func (h *History) Empty() bool {
	return len(h.Weights) == 0 && len(h.Discipline) == 0
}

// HistoryService answers history queries.
type HistoryService struct {
	weights    *repository.WeightRepository
	discipline *repository.DisciplineRepository
}

func NewHistoryService(weights *repository.WeightRepository, discipline *repository.DisciplineRepository) *HistoryService {
	return &HistoryService{weights: weights, discipline: discipline}
}

// Get returns the user's weight and discipline entries with from <= t <= to.
func (s *HistoryService) Get(ctx context.Context, user *model.User, from, to time.Time) (*History, error) {
	if from.After(to) {
		return nil, invalid("range", "Начало периода позже его конца.")
	}
	weights, err := s.weights.ListBetween(ctx, user.ID, from, to)
	if err != nil {
		return nil, err
	}
	marks, err := s.discipline.ListBetween(ctx, user.ID, from, to)
	if err != nil {
		return nil, err
	}
	return &History{From: from, To: to, Weights: weights, Discipline: marks}, nil
}

// LastDays is Get for the calendar days ending today, in now's location.
func (s *HistoryService) LastDays(ctx context.Context, user *model.User, now time.Time, days int) (*History, error) {
	from := DayStart(now).AddDate(0, 0, -(days - 1))
	return s.Get(ctx, user, from, now)
}
