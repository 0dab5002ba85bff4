package service

import (
	"context"
	"time"

	"discipline-bot/internal/model"
	"discipline-bot/internal/repository"
)

// Profile is the data shown by /profile.
type Profile struct {
	Latest    *model.WeightEntry
	Target    *float64
	ToTarget  *float64
	WeekEven  bool
	Slots     int
	Location  *time.Location
	CreatedAt time.Time
}

type ProfileService struct {
	weights  *repository.WeightRepository
	schedule *repository.ScheduleRepository
}

func NewProfileService(weights *repository.WeightRepository, schedule *repository.ScheduleRepository) *ProfileService {
	return &ProfileService{weights: weights, schedule: schedule}
}

// Profile collects the user's current state. now must be in the user's location.
func (s *ProfileService) Profile(ctx context.Context, user *model.User, now time.Time) (*Profile, error) {
	latest, err := s.weights.Latest(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	slots, err := s.schedule.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		Latest:    latest,
		Target:    user.TargetWeight,
		WeekEven:  UserWeekEven(now, user.WeekParityOffset),
		Slots:     len(slots),
		Location:  now.Location(),
		CreatedAt: user.CreatedAt,
	}
	if latest != nil && user.TargetWeight != nil {
		p.ToTarget = ptr(round2(latest.Value - *user.TargetWeight))
	}
	return p, nil
}

// UserLocation returns the user's timezone override, or fallback when it is
// unset or no longer loadable.
func UserLocation(user *model.User, fallback *time.Location) *time.Location {
	if user == nil || user.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
