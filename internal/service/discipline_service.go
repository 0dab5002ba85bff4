package service

import (
	"context"
	"time"

	"discipline-bot/internal/model"
	"discipline-bot/internal/repository"
)

// DisciplineInput represents one done/missed mark.
type DisciplineInput struct {
	Task        string
	Status      string
	At          time.Time
	DurationMin *int
	Notes       string
}

// DisciplineService wraps task marks, the workout schedule and week parity.
type DisciplineService struct {
	entries  *repository.DisciplineRepository
	schedule *repository.ScheduleRepository
	users    *repository.UserRepository
}

func NewDisciplineService(entries *repository.DisciplineRepository, schedule *repository.ScheduleRepository, users *repository.UserRepository) *DisciplineService {
	return &DisciplineService{entries: entries, schedule: schedule, users: users}
}

// Record stores a mark for the task. An empty task means a workout. The
// moment is truncated to the minute, so repeating a mark within the same
// minute replaces it.
func (s *DisciplineService) Record(ctx context.Context, user *model.User, in DisciplineInput) (*model.DisciplineEntry, error) {
	task := model.TaskWorkout
	if in.Task != "" {
		name, err := ParseTaskName(in.Task)
		if err != nil {
			return nil, err
		}
		task = name
	}
	if in.Status != model.StatusDone && in.Status != model.StatusMissed {
		return nil, invalid("status", statusHint)
	}
	if in.DurationMin != nil && (*in.DurationMin <= 0 || *in.DurationMin > maxDurationMin) {
		return nil, invalid("duration", "Длительность указывается в минутах, от 1 до 1440.")
	}
	if err := checkNotes(in.Notes); err != nil {
		return nil, err
	}

	entry := model.DisciplineEntry{
		UserID:      user.ID,
		Task:        task,
		OccurredAt:  in.At.Truncate(time.Minute),
		Status:      in.Status,
		DurationMin: in.DurationMin,
		Notes:       in.Notes,
	}
	if err := s.entries.Upsert(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SetSchedule replaces the user's slots of weekType with one slot per weekday at clock.
func (s *DisciplineService) SetSchedule(ctx context.Context, user *model.User, weekdays []int, clock, weekType string) ([]model.ScheduleSlot, error) {
	if len(weekdays) == 0 {
		return nil, invalid("weekday", "Укажите хотя бы один день недели: пн, вт, ср, чт, пт, сб, вс.")
	}
	normalized, err := ParseClock(clock)
	if err != nil {
		return nil, err
	}
	if weekType == "" {
		weekType = model.WeekAny
	}

	slots := make([]model.ScheduleSlot, 0, len(weekdays))
	for _, d := range weekdays {
		if d < 0 || d > 6 {
			return nil, invalid("weekday", "День недели должен быть от пн до вс.")
		}
		slots = append(slots, model.ScheduleSlot{Weekday: d, Time: normalized, WeekType: weekType})
	}
	if err := s.schedule.ReplaceWeekType(ctx, user.ID, weekType, slots); err != nil {
		return nil, err
	}
	return s.schedule.List(ctx, user.ID)
}

func (s *DisciplineService) ClearSchedule(ctx context.Context, user *model.User) error {
	return s.schedule.Clear(ctx, user.ID)
}

func (s *DisciplineService) Schedule(ctx context.Context, user *model.User) ([]model.ScheduleSlot, error) {
	return s.schedule.List(ctx, user.ID)
}

// SetWeekParity declares whether the week containing ref is even for the user.
func (s *DisciplineService) SetWeekParity(ctx context.Context, user *model.User, ref time.Time, isEven bool) (int, error) {
	offset := WeekParityOffset(ref, isEven)
	if err := s.users.SetWeekParityOffset(ctx, user.ID, offset); err != nil {
		return 0, err
	}
	user.WeekParityOffset = offset
	return offset, nil
}
