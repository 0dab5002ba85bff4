package service

import (
	"math"
	"time"

	"discipline-bot/internal/model"
)

// LowDisciplineThreshold is the score below which the user is warned.
const LowDisciplineThreshold = 70.0

// DisciplineScore is the share of scheduled workouts that were done, in
// percent rounded to two decimals. Nothing scheduled scores 0.
func DisciplineScore(done, scheduled int) float64 {
	if scheduled <= 0 {
		return 0
	}
	return round2(float64(done) / float64(scheduled) * 100)
}

// LowDiscipline reports whether a score deserves a warning. Users without
// any scheduled workout in the period are never warned.
func LowDiscipline(score float64, scheduled int) bool {
	return scheduled > 0 && score < LowDisciplineThreshold
}

func isoWeekEven(t time.Time) bool {
	_, week := t.ISOWeek()
	return week%2 == 0
}

// WeekParityOffset returns the offset that makes the week containing ref
// count as even (isEven) or odd for this user.
func WeekParityOffset(ref time.Time, isEven bool) int {
	if isoWeekEven(ref) == isEven {
		return 0
	}
	return 1
}

// UserWeekEven reports whether t falls in an even week for a user with the given offset.
func UserWeekEven(t time.Time, offset int) bool {
	parity := 1
	if isoWeekEven(t) {
		parity = 0
	}
	return (parity+offset)%2 == 0
}

// WeekAllowed reports whether a slot of weekType applies to the week of t.
func WeekAllowed(t time.Time, offset int, weekType string) bool {
	switch weekType {
	case model.WeekEven:
		return UserWeekEven(t, offset)
	case model.WeekOdd:
		return !UserWeekEven(t, offset)
	default:
		return true
	}
}

// CountScheduled counts the workouts the schedule planned for the calendar
// days from..to inclusive, in the location of from.
func CountScheduled(slots []model.ScheduleSlot, from, to time.Time, offset int) int {
	if from.After(to) || len(slots) == 0 {
		return 0
	}

	byWeekday := make(map[int][]string)
	for _, slot := range slots {
		byWeekday[slot.Weekday] = append(byWeekday[slot.Weekday], slot.WeekType)
	}

	loc := from.Location()
	to = to.In(loc)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)

	total := 0
	for !day.After(last) {
		for _, wt := range byWeekday[WeekdayIndex(day)] {
			if WeekAllowed(day, offset, wt) {
				total++
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return total
}

// WeekdayIndex converts Go's Sunday-first weekday to 0 = Monday .. 6 = Sunday.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// MonthRange returns the first and last instant of t's month in t's location.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// DayStart truncates t to local midnight.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
