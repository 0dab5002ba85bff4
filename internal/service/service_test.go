package service_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"discipline-bot/internal/logging"
	"discipline-bot/internal/model"
	"discipline-bot/internal/repository"
	"discipline-bot/internal/service"
)

type fixture struct {
	users      *repository.UserRepository
	weightRepo *repository.WeightRepository
	weights    *service.WeightService
	discipline *service.DisciplineService
	history    *service.HistoryService
	reports    *service.ReportService
	profiles   *service.ProfileService
	calories   *service.CalorieService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "bot.sqlite3"), logging.Nop())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = repository.Close(db) })

	users := repository.NewUserRepository(db)
	weights := repository.NewWeightRepository(db)
	marks := repository.NewDisciplineRepository(db)
	schedule := repository.NewScheduleRepository(db)
	eaten := repository.NewCalorieRepository(db)
	return &fixture{
		users:      users,
		weightRepo: weights,
		weights:    service.NewWeightService(weights, users),
		discipline: service.NewDisciplineService(marks, schedule, users),
		history:    service.NewHistoryService(weights, marks),
		reports:    service.NewReportService(weights, marks, schedule, eaten),
		profiles:   service.NewProfileService(weights, schedule),
		calories:   service.NewCalorieService(eaten, weights, users),
	}
}

func (f *fixture) user(t *testing.T, tgID int64) *model.User {
	t.Helper()
	u, _, err := f.users.UpsertFromTelegram(context.Background(), tgID, "Test", "", "")
	if err != nil {
		t.Fatalf("UpsertFromTelegram: %v", err)
	}
	return u
}

func TestWeightHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 1)
	other := f.user(t, 2)

	at := time.Date(2024, 4, 2, 7, 45, 12, 0, time.UTC)
	if _, err := f.weights.Record(ctx, u, at, 72.5); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := f.weights.Record(ctx, other, at, 99); err != nil {
		t.Fatalf("Record: %v", err)
	}

	h, err := f.history.Get(ctx, u, at.Add(-24*time.Hour), at.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(h.Weights) != 1 {
		t.Fatalf("expected exactly one entry, got %+v", h.Weights)
	}
	if h.Weights[0].Value != 72.5 || !h.Weights[0].RecordedAt.Equal(at) {
		t.Errorf("round trip mismatch: %+v", h.Weights[0])
	}
}

func TestWeightServiceRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 1)

	_, err := f.weights.Record(ctx, u, time.Now(), -3)
	assertValidation(t, err, "weight")

	latest, err := f.weightRepo.Latest(ctx, u.ID)
	if err != nil || latest != nil {
		t.Errorf("invalid weight must not be stored, got %+v, %v", latest, err)
	}

	if err := f.weights.SetTarget(ctx, u, 68); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	if u.TargetWeight == nil || *u.TargetWeight != 68 {
		t.Errorf("target not reflected on user: %v", u.TargetWeight)
	}
}

func TestHistoryRejectsReversedRange(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, 1)
	now := time.Now()
	_, err := f.history.Get(context.Background(), u, now, now.Add(-time.Hour))
	assertValidation(t, err, "range")
}

func TestDisciplineRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 1)
	at := time.Date(2024, 4, 2, 19, 3, 41, 0, time.UTC)

	entry, err := f.discipline.Record(ctx, u, service.DisciplineInput{Status: model.StatusDone, At: at})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if entry.Task != model.TaskWorkout {
		t.Errorf("default task = %q, want workout", entry.Task)
	}
	if !entry.OccurredAt.Equal(time.Date(2024, 4, 2, 19, 3, 0, 0, time.UTC)) {
		t.Errorf("moment not truncated to the minute: %v", entry.OccurredAt)
	}

	named, err := f.discipline.Record(ctx, u, service.DisciplineInput{Task: " Чтение ", Status: model.StatusMissed, At: at})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if named.Task != "чтение" {
		t.Errorf("task name not normalized: %q", named.Task)
	}

	_, err = f.discipline.Record(ctx, u, service.DisciplineInput{Status: "maybe", At: at})
	assertValidation(t, err, "status")

	_, err = f.discipline.Record(ctx, u, service.DisciplineInput{Status: model.StatusDone, At: at, Notes: strings.Repeat("н", 301)})
	assertValidation(t, err, "notes")
}

func TestScheduleAndWeekParity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 1)

	slots, err := f.discipline.SetSchedule(ctx, u, []int{0, 2, 4}, "7:00", "")
	if err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	if len(slots) != 3 || slots[0].Time != "07:00" || slots[0].WeekType != model.WeekAny {
		t.Errorf("unexpected slots %+v", slots)
	}

	_, err = f.discipline.SetSchedule(ctx, u, []int{1}, "25:00", model.WeekOdd)
	assertValidation(t, err, "time")

	ref := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC) // ISO week 2
	offset, err := f.discipline.SetWeekParity(ctx, u, ref, false)
	if err != nil || offset != 1 {
		t.Fatalf("SetWeekParity = %d, %v", offset, err)
	}
	stored, err := f.users.FindByTelegramID(ctx, 1)
	if err != nil || stored.WeekParityOffset != 1 {
		t.Errorf("offset not persisted: %+v, %v", stored, err)
	}

	if err := f.discipline.ClearSchedule(ctx, u); err != nil {
		t.Fatalf("ClearSchedule: %v", err)
	}
	slots, err = f.discipline.Schedule(ctx, u)
	if err != nil || len(slots) != 0 {
		t.Errorf("schedule not cleared: %+v, %v", slots, err)
	}
}

func TestMonthlyReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 1)

	// Mon/Wed/Fri; 2024-03-01 is a Friday, so Mar 1..15 holds 7 scheduled days.
	if _, err := f.discipline.SetSchedule(ctx, u, []int{0, 2, 4}, "19:00", model.WeekAny); err != nil {
		t.Fatal(err)
	}
	day := func(d int) time.Time { return time.Date(2024, 3, d, 19, 0, 0, 0, time.UTC) }
	for _, d := range []int{1, 4, 6, 8, 11} {
		if _, err := f.discipline.Record(ctx, u, service.DisciplineInput{Status: model.StatusDone, At: day(d)}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.discipline.Record(ctx, u, service.DisciplineInput{Status: model.StatusMissed, At: day(13)}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.weights.Record(ctx, u, day(1), 80); err != nil {
		t.Fatal(err)
	}
	if _, err := f.weights.Record(ctx, u, day(14), 78.4); err != nil {
		t.Fatal(err)
	}
	// Previous month must not leak into the report.
	if _, err := f.weights.Record(ctx, u, time.Date(2024, 2, 28, 8, 0, 0, 0, time.UTC), 85); err != nil {
		t.Fatal(err)
	}

	r, err := f.reports.Monthly(ctx, u, time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if r.Done != 5 || r.Missed != 1 || r.Scheduled != 7 {
		t.Errorf("unexpected counts done=%d missed=%d scheduled=%d", r.Done, r.Missed, r.Scheduled)
	}
	if r.Score != 71.43 {
		t.Errorf("score = %v, want 71.43", r.Score)
	}
	if r.StartWeight == nil || *r.StartWeight != 80 || r.EndWeight == nil || *r.EndWeight != 78.4 {
		t.Fatalf("unexpected weights %v %v", r.StartWeight, r.EndWeight)
	}
	if *r.Diff != -1.6 || *r.DiffPercent != -2 {
		t.Errorf("diff = %v (%v%%), want -1.6 (-2%%)", *r.Diff, *r.DiffPercent)
	}
}

func TestStatsAndProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 1)
	now := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)

	if _, err := f.weights.Record(ctx, u, now.AddDate(0, 0, -40), 90); err != nil {
		t.Fatal(err)
	}
	if _, err := f.weights.Record(ctx, u, now.AddDate(0, 0, -20), 88); err != nil {
		t.Fatal(err)
	}
	if _, err := f.weights.Record(ctx, u, now.AddDate(0, 0, -1), 86.5); err != nil {
		t.Fatal(err)
	}
	if _, err := f.discipline.Record(ctx, u, service.DisciplineInput{Task: "чтение", Status: model.StatusDone, At: now.AddDate(0, 0, -2)}); err != nil {
		t.Fatal(err)
	}

	st, err := f.reports.Stats(ctx, u, now)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.LatestWeight == nil || *st.LatestWeight != 86.5 {
		t.Errorf("latest = %v", st.LatestWeight)
	}
	if st.WindowStartWeight == nil || *st.WindowStartWeight != 88 {
		t.Errorf("window start = %v", st.WindowStartWeight)
	}
	if st.WeightChange == nil || *st.WeightChange != -1.5 {
		t.Errorf("change = %v", st.WeightChange)
	}
	if st.Scheduled != 0 || st.Score != 0 || st.TasksDone["чтение"] != 1 {
		t.Errorf("unexpected discipline stats %+v", st)
	}

	if err := f.weights.SetTarget(ctx, u, 80); err != nil {
		t.Fatal(err)
	}
	p, err := f.profiles.Profile(ctx, u, now)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.ToTarget == nil || *p.ToTarget != 6.5 {
		t.Errorf("to target = %v, want 6.5", p.ToTarget)
	}
}

func TestExportYAML(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 555)
	at := time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC)

	if _, err := f.weights.Record(ctx, u, at, 70.2); err != nil {
		t.Fatal(err)
	}
	dur := 30
	if _, err := f.discipline.Record(ctx, u, service.DisciplineInput{Status: model.StatusDone, At: at, DurationMin: &dur, Notes: "бег"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.discipline.SetSchedule(ctx, u, []int{1}, "18:00", model.WeekEven); err != nil {
		t.Fatal(err)
	}
	if _, err := f.calories.Record(ctx, u, at, 650); err != nil {
		t.Fatal(err)
	}

	out, err := f.reports.Export(ctx, u, at, time.UTC)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var doc struct {
		User struct {
			TelegramID int64 `yaml:"telegram_id"`
		} `yaml:"user"`
		Weights []struct {
			At    string  `yaml:"at"`
			Value float64 `yaml:"value"`
		} `yaml:"weights"`
		Discipline []struct {
			Task        string `yaml:"task"`
			DurationMin int    `yaml:"duration_min"`
		} `yaml:"discipline"`
		Schedule []struct {
			WeekType string `yaml:"week_type"`
		} `yaml:"schedule"`
		Calories []struct {
			Kcal int `yaml:"kcal"`
		} `yaml:"calories"`
	}
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("export is not valid yaml: %v\n%s", err, out)
	}
	if doc.User.TelegramID != 555 {
		t.Errorf("telegram id = %d", doc.User.TelegramID)
	}
	if len(doc.Weights) != 1 || doc.Weights[0].Value != 70.2 || doc.Weights[0].At != "2024-07-01T06:00:00Z" {
		t.Errorf("unexpected weights %+v", doc.Weights)
	}
	if len(doc.Discipline) != 1 || doc.Discipline[0].Task != "workout" || doc.Discipline[0].DurationMin != 30 {
		t.Errorf("unexpected discipline %+v", doc.Discipline)
	}
	if len(doc.Schedule) != 1 || doc.Schedule[0].WeekType != "even" {
		t.Errorf("unexpected schedule %+v", doc.Schedule)
	}
	if len(doc.Calories) != 1 || doc.Calories[0].Kcal != 650 {
		t.Errorf("unexpected calories %+v", doc.Calories)
	}
}

func TestCalorieService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 1)
	msk, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 6, 10, 13, 0, 0, 0, msk)

	if _, err := f.calories.Record(ctx, u, now.Add(-time.Hour), 500); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// 23:30 UTC the day before is 02:30 in Moscow, the same local day.
	total, err := f.calories.Record(ctx, u, time.Date(2024, 6, 9, 23, 30, 0, 0, time.UTC).In(msk), 300)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if total != 800 {
		t.Errorf("day total = %d, want 800", total)
	}
	if _, err := f.calories.Record(ctx, u, now, 0); err == nil {
		t.Error("zero kcal must be rejected")
	}

	sum, err := f.calories.Summary(ctx, u, now)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Today != 800 || sum.Profile != nil {
		t.Errorf("without body params: %+v", sum)
	}

	if _, err := f.weights.Record(ctx, u, now, 80); err != nil {
		t.Fatal(err)
	}
	body := service.BodyParams{HeightCm: 180, BirthYear: 1994, Gender: model.GenderMale, Activity: model.ActivityModerate, Goal: model.GoalLose}
	if err := f.calories.SetBody(ctx, u, body); err != nil {
		t.Fatalf("SetBody: %v", err)
	}
	sum, err = f.calories.Summary(ctx, u, now)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	// BMR = 800 + 1125 - 150 + 5 = 1780, TDEE = 2759, lose = 2259.
	if sum.Profile == nil || sum.Profile.BMR != 1780 || sum.Profile.TDEE != 2759 || sum.Profile.DailyTarget != 2259 {
		t.Errorf("unexpected profile %+v", sum.Profile)
	}
	if sum.Profile.BMI != 24.7 || sum.Profile.BMICategory != "норма" {
		t.Errorf("unexpected bmi %+v", sum.Profile)
	}
}
