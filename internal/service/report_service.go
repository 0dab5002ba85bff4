package service

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"discipline-bot/internal/model"
	"discipline-bot/internal/repository"
)

// StatsWindowDays is the length of the rolling statistics window.
const StatsWindowDays = 30

// Stats summarizes the last StatsWindowDays days.
type Stats struct {
	From      time.Time
	To        time.Time
	Done      int
	Missed    int
	Scheduled int
	Score     float64

	LatestWeight *float64
	// WindowStartWeight is the first measurement inside the window.
	WindowStartWeight *float64
	WeightChange      *float64

	// TasksDone counts done marks per task, workouts included.
	TasksDone map[string]int
}

// MonthlyReport covers the month of the report date up to that date.
type MonthlyReport struct {
	From        time.Time
	To          time.Time
	StartWeight *float64
	EndWeight   *float64
	Diff        *float64
	DiffPercent *float64
	Done        int
	Missed      int
	Scheduled   int
	Score       float64
	Weights     []model.WeightEntry
}

// ReportService builds statistics, monthly reports and data exports.
type ReportService struct {
	weights    *repository.WeightRepository
	discipline *repository.DisciplineRepository
	schedule   *repository.ScheduleRepository
	calories   *repository.CalorieRepository
}

func NewReportService(weights *repository.WeightRepository, discipline *repository.DisciplineRepository, schedule *repository.ScheduleRepository, calories *repository.CalorieRepository) *ReportService {
	return &ReportService{weights: weights, discipline: discipline, schedule: schedule, calories: calories}
}

// Stats computes the rolling window ending at now. Day boundaries follow now's location.
func (s *ReportService) Stats(ctx context.Context, user *model.User, now time.Time) (*Stats, error) {
	from := now.AddDate(0, 0, -StatsWindowDays)
	st := &Stats{From: from, To: now}

	if err := s.fillDiscipline(ctx, user, from, now, &st.Done, &st.Missed, &st.Scheduled); err != nil {
		return nil, err
	}
	st.Score = DisciplineScore(st.Done, st.Scheduled)

	tasks, err := s.discipline.CountDoneByTask(ctx, user.ID, from, now)
	if err != nil {
		return nil, err
	}
	st.TasksDone = tasks

	latest, err := s.weights.Latest(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		st.LatestWeight = ptr(latest.Value)
	}
	first, err := s.weights.FirstBetween(ctx, user.ID, from, now)
	if err != nil {
		return nil, err
	}
	if first != nil {
		st.WindowStartWeight = ptr(first.Value)
		if latest != nil {
			st.WeightChange = ptr(round2(latest.Value - first.Value))
		}
	}
	return st, nil
}

// Monthly builds the report from the first day of now's month up to now.
func (s *ReportService) Monthly(ctx context.Context, user *model.User, now time.Time) (*MonthlyReport, error) {
	from, _ := MonthRange(now)
	return s.Between(ctx, user, from, now)
}

// Between builds a report for an arbitrary range.
func (s *ReportService) Between(ctx context.Context, user *model.User, from, to time.Time) (*MonthlyReport, error) {
	r := &MonthlyReport{From: from, To: to}

	if err := s.fillDiscipline(ctx, user, from, to, &r.Done, &r.Missed, &r.Scheduled); err != nil {
		return nil, err
	}
	r.Score = DisciplineScore(r.Done, r.Scheduled)

	weights, err := s.weights.ListBetween(ctx, user.ID, from, to)
	if err != nil {
		return nil, err
	}
	r.Weights = weights
	if len(weights) > 0 {
		start, end := weights[0].Value, weights[len(weights)-1].Value
		r.StartWeight, r.EndWeight = ptr(start), ptr(end)
		diff := round2(end - start)
		r.Diff = ptr(diff)
		if start != 0 {
			r.DiffPercent = ptr(round2(diff / start * 100))
		}
	}
	return r, nil
}

// Totals returns the number of stored weight entries and discipline marks across all users.
func (s *ReportService) Totals(ctx context.Context) (weights, marks int64, err error) {
	if weights, err = s.weights.Count(ctx); err != nil {
		return 0, 0, err
	}
	if marks, err = s.discipline.Count(ctx); err != nil {
		return 0, 0, err
	}
	return weights, marks, nil
}

func (s *ReportService) fillDiscipline(ctx context.Context, user *model.User, from, to time.Time, done, missed, scheduled *int) error {
	counts, err := s.discipline.CountByStatus(ctx, user.ID, model.TaskWorkout, from, to)
	if err != nil {
		return err
	}
	slots, err := s.schedule.List(ctx, user.ID)
	if err != nil {
		return err
	}
	*done, *missed = counts.Done, counts.Missed
	*scheduled = CountScheduled(slots, from, to, user.WeekParityOffset)
	return nil
}

type exportDocument struct {
	ExportedAt string             `yaml:"exported_at"`
	User       exportUser         `yaml:"user"`
	Weights    []exportWeight     `yaml:"weights"`
	Discipline []exportDiscipline `yaml:"discipline"`
	Schedule   []exportSlot       `yaml:"schedule"`
	Calories   []exportCalories   `yaml:"calories"`
}

type exportUser struct {
	TelegramID       int64    `yaml:"telegram_id"`
	Username         string   `yaml:"username,omitempty"`
	Timezone         string   `yaml:"timezone"`
	TargetWeight     *float64 `yaml:"target_weight,omitempty"`
	WeekParityOffset int      `yaml:"week_parity_offset"`
	HeightCm         *int     `yaml:"height_cm,omitempty"`
	BirthYear        *int     `yaml:"birth_year,omitempty"`
	Gender           string   `yaml:"gender,omitempty"`
	ActivityLevel    string   `yaml:"activity_level,omitempty"`
	Goal             string   `yaml:"goal,omitempty"`
	CreatedAt        string   `yaml:"created_at"`
}

type exportWeight struct {
	At    string  `yaml:"at"`
	Value float64 `yaml:"value"`
	Unit  string  `yaml:"unit"`
}

type exportDiscipline struct {
	At          string `yaml:"at"`
	Task        string `yaml:"task"`
	Status      string `yaml:"status"`
	DurationMin *int   `yaml:"duration_min,omitempty"`
	Notes       string `yaml:"notes,omitempty"`
}

type exportCalories struct {
	At   string `yaml:"at"`
	Kcal int    `yaml:"kcal"`
}

type exportSlot struct {
	Weekday  int    `yaml:"weekday"`
	Time     string `yaml:"time"`
	WeekType string `yaml:"week_type"`
}

// Export renders all of the user's data as a YAML document with times in loc.
func (s *ReportService) Export(ctx context.Context, user *model.User, now time.Time, loc *time.Location) ([]byte, error) {
	weights, err := s.weights.ListAll(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	marks, err := s.discipline.ListAll(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	slots, err := s.schedule.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	eaten, err := s.calories.ListAll(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	doc := exportDocument{
		ExportedAt: now.In(loc).Format(time.RFC3339),
		User: exportUser{
			TelegramID:       user.TelegramID,
			Username:         user.Username,
			Timezone:         loc.String(),
			TargetWeight:     user.TargetWeight,
			WeekParityOffset: user.WeekParityOffset,
			CreatedAt:        user.CreatedAt.In(loc).Format(time.RFC3339),
		},
		Weights:    make([]exportWeight, 0, len(weights)),
		Discipline: make([]exportDiscipline, 0, len(marks)),
		Schedule:   make([]exportSlot, 0, len(slots)),
		Calories:   make([]exportCalories, 0, len(eaten)),
	}
	for _, w := range weights {
		doc.Weights = append(doc.Weights, exportWeight{At: w.RecordedAt.In(loc).Format(time.RFC3339), Value: w.Value, Unit: w.Unit})
	}
	for _, m := range marks {
		doc.Discipline = append(doc.Discipline, exportDiscipline{
			At:          m.OccurredAt.In(loc).Format(time.RFC3339),
			Task:        m.Task,
			Status:      m.Status,
			DurationMin: m.DurationMin,
			Notes:       m.Notes,
		})
	}
	for _, slot := range slots {
		doc.Schedule = append(doc.Schedule, exportSlot{Weekday: slot.Weekday, Time: slot.Time, WeekType: slot.WeekType})
	}

	for _, c := range eaten {
		doc.Calories = append(doc.Calories, exportCalories{At: c.RecordedAt.In(loc).Format(time.RFC3339), Kcal: c.Kcal})
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }
