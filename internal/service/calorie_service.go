package service

import (
	"context"
	"time"

	"discipline-bot/internal/model"
	"discipline-bot/internal/repository"
)

// CalorieSummary is today's intake next to the computed norm.
type CalorieSummary struct {
	Today   int
	Profile *CalorieProfile // nil until body parameters and a weight are known
}

// CalorieService logs eaten kcal and computes the daily norm.
type CalorieService struct {
	calories *repository.CalorieRepository
	weights  *repository.WeightRepository
	users    *repository.UserRepository
}

func NewCalorieService(calories *repository.CalorieRepository, weights *repository.WeightRepository, users *repository.UserRepository) *CalorieService {
	return &CalorieService{calories: calories, weights: weights, users: users}
}

// Record stores a portion eaten at the given moment and returns the total
// for that calendar day in at's location.
func (s *CalorieService) Record(ctx context.Context, user *model.User, at time.Time, kcal int) (int, error) {
	if kcal <= 0 || kcal > maxPortionKcal {
		return 0, invalid("calories", "Укажите калории целым числом от 1 до 10000, например <code>500</code>.")
	}
	entry := model.CalorieEntry{UserID: user.ID, RecordedAt: at, Kcal: kcal}
	if err := s.calories.Create(ctx, &entry); err != nil {
		return 0, err
	}
	return s.today(ctx, user, at)
}

// SetBody stores the body parameters on the user.
func (s *CalorieService) SetBody(ctx context.Context, user *model.User, p BodyParams) error {
	if err := s.users.SetBody(ctx, user.ID, p.HeightCm, p.BirthYear, p.Gender, p.Activity, p.Goal); err != nil {
		return err
	}
	user.HeightCm, user.BirthYear = &p.HeightCm, &p.BirthYear
	user.Gender, user.ActivityLevel, user.Goal = p.Gender, p.Activity, p.Goal
	return nil
}

// Summary computes the norm from the latest weight. now must be in the user's location.
func (s *CalorieService) Summary(ctx context.Context, user *model.User, now time.Time) (*CalorieSummary, error) {
	today, err := s.today(ctx, user, now)
	if err != nil {
		return nil, err
	}
	sum := &CalorieSummary{Today: today}
	latest, err := s.weights.Latest(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		sum.Profile = ComputeCalorieProfile(latest.Value, user, now)
	}
	return sum, nil
}

func (s *CalorieService) today(ctx context.Context, user *model.User, at time.Time) (int, error) {
	from := DayStart(at)
	return s.calories.SumBetween(ctx, user.ID, from, from.AddDate(0, 0, 1))
}
