package service

import (
	"context"
	"time"

	"discipline-bot/internal/model"
	"discipline-bot/internal/repository"
)

// WeightService wraps weight logging and the target weight.
type WeightService struct {
	weights *repository.WeightRepository
	users   *repository.UserRepository
}

func NewWeightService(weights *repository.WeightRepository, users *repository.UserRepository) *WeightService {
	return &WeightService{weights: weights, users: users}
}

// Record validates and stores a measurement in kilograms taken at the given moment.
func (s *WeightService) Record(ctx context.Context, user *model.User, at time.Time, value float64) (*model.WeightEntry, error) {
	if err := checkWeight(value); err != nil {
		return nil, err
	}
	entry := model.WeightEntry{
		UserID:     user.ID,
		RecordedAt: at,
		Value:      value,
		Unit:       model.UnitKilogram,
	}
	if err := s.weights.Create(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *WeightService) SetTarget(ctx context.Context, user *model.User, value float64) error {
	if err := checkWeight(value); err != nil {
		return err
	}
	if err := s.users.SetTargetWeight(ctx, user.ID, value); err != nil {
		return err
	}
	user.TargetWeight = &value
	return nil
}
