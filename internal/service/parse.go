package service

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"discipline-bot/internal/model"
)

const (
	maxWeightKg    = 500.0
	maxHistoryDays = 365
	maxDurationMin = 24 * 60
	maxTaskLen     = 64
	maxNotesLen    = 300
)

const (
	weightHint = "Укажите вес в килограммах числом, например <code>82.4</code> или <code>75,5</code>."
	statusHint = "Укажите статус: <b>выполнено</b> или <b>пропущено</b>."
)

var statusWords = map[string]string{
	"выполнено":  model.StatusDone,
	"выполнил":   model.StatusDone,
	"выполнила":  model.StatusDone,
	"сделал":     model.StatusDone,
	"сделала":    model.StatusDone,
	"готово":     model.StatusDone,
	"да":         model.StatusDone,
	"done":       model.StatusDone,
	"пропущено":  model.StatusMissed,
	"пропуск":    model.StatusMissed,
	"пропустил":  model.StatusMissed,
	"пропустила": model.StatusMissed,
	"нет":        model.StatusMissed,
	"missed":     model.StatusMissed,
	"skip":       model.StatusMissed,
}

var weekdayWords = map[string]int{
	"пн": 0, "пон": 0, "понедельник": 0, "mon": 0,
	"вт": 1, "вто": 1, "вторник": 1, "tue": 1,
	"ср": 2, "сре": 2, "среда": 2, "wed": 2,
	"чт": 3, "чет": 3, "четверг": 3, "thu": 3,
	"пт": 4, "пят": 4, "пятница": 4, "fri": 4,
	"сб": 5, "суб": 5, "суббота": 5, "sat": 5,
	"вс": 6, "вос": 6, "воскресенье": 6, "sun": 6,
}

var weekTypeWords = map[string]string{
	"any":      model.WeekAny,
	"все":      model.WeekAny,
	"любые":    model.WeekAny,
	"even":     model.WeekEven,
	"четные":   model.WeekEven,
	"чётные":   model.WeekEven,
	"четная":   model.WeekEven,
	"чётная":   model.WeekEven,
	"odd":      model.WeekOdd,
	"нечетные": model.WeekOdd,
	"нечётные": model.WeekOdd,
	"нечетная": model.WeekOdd,
	"нечётная": model.WeekOdd,
}

// ParseWeight accepts "82.4", "82,4" and an optional "кг"/"kg" suffix.
func ParseWeight(raw string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "кг"), "kg"))
	if s == "" {
		return 0, invalid("weight", "Вес не указан. "+weightHint)
	}
	if !LooksNumeric(s) {
		return 0, invalid("weight", "Неверный формат веса. "+weightHint)
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid("weight", "Неверный формат веса. "+weightHint)
	}
	return v, checkWeight(v)
}

func checkWeight(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v > maxWeightKg {
		return invalid("weight", "Вес должен быть больше 0 и не больше 500 кг. "+weightHint)
	}
	return nil
}

// LooksNumeric reports whether a plain message should be treated as a weight.
func LooksNumeric(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return false
		}
	}
	return true
}

// ParseStatus maps Russian and English words onto done/missed.
func ParseStatus(raw string) (string, error) {
	status, ok := statusWords[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", invalid("status", "Неверный статус. "+statusHint)
	}
	return status, nil
}

// LogArgs is the parsed form of "<status> [minutes] [notes...]".
type LogArgs struct {
	Status      string
	DurationMin *int
	Notes       string
}

func ParseLogArgs(raw string) (LogArgs, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return LogArgs{}, invalid("status", statusHint)
	}
	status, err := ParseStatus(tokens[0])
	if err != nil {
		return LogArgs{}, err
	}
	args := LogArgs{Status: status}
	rest := tokens[1:]
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			if n <= 0 || n > maxDurationMin {
				return LogArgs{}, invalid("duration", "Длительность указывается в минутах, от 1 до 1440.")
			}
			args.DurationMin = &n
			rest = rest[1:]
		}
	}
	args.Notes = strings.Join(rest, " ")
	if err := checkNotes(args.Notes); err != nil {
		return LogArgs{}, err
	}
	return args, nil
}

func checkNotes(notes string) error {
	if utf8.RuneCountInString(notes) > maxNotesLen {
		return invalid("notes", fmt.Sprintf("Заметка слишком длинная: не больше %d символов.", maxNotesLen))
	}
	return nil
}

// ParseTaskName normalizes a habit name: trimmed, lower-case, single spaces.
func ParseTaskName(raw string) (string, error) {
	name := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if name == "" {
		return "", invalid("task", "Укажите название задачи, например <code>/done чтение</code>.")
	}
	if utf8.RuneCountInString(name) > maxTaskLen {
		return "", invalid("task", "Название задачи слишком длинное (не больше 64 символов).")
	}
	return name, nil
}

// ParseWeekday maps a day token such as "пн" or "fri" to 0 (Monday) .. 6.
func ParseWeekday(raw string) (int, bool) {
	d, ok := weekdayWords[strings.ToLower(strings.Trim(strings.TrimSpace(raw), ",."))]
	return d, ok
}

// ParseWeekdays parses a list of day tokens and returns them sorted without duplicates.
func ParseWeekdays(tokens []string) ([]int, error) {
	seen := make(map[int]bool)
	for _, tok := range tokens {
		d, ok := ParseWeekday(tok)
		if !ok {
			return nil, invalid("weekday", "Не понял день недели «"+html.EscapeString(tok)+"». Используйте пн, вт, ср, чт, пт, сб, вс.")
		}
		seen[d] = true
	}
	if len(seen) == 0 {
		return nil, invalid("weekday", "Укажите хотя бы один день недели: пн, вт, ср, чт, пт, сб, вс.")
	}
	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)
	return days, nil
}

// ParseClock validates HH:MM and returns it zero padded.
func ParseClock(raw string) (string, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	bad := invalid("time", "Время указывается в формате ЧЧ:ММ, например <code>19:00</code>.")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", bad
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) > 2 {
		return "", bad
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return "", bad
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func ParseWeekType(raw string) (string, error) {
	wt, ok := weekTypeWords[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", invalid("week_type", "Тип недели: <b>any</b>, <b>even</b> (чётные) или <b>odd</b> (нечётные).")
	}
	return wt, nil
}

// IsWeekTypeWord reports whether the token names a week type.
func IsWeekTypeWord(raw string) bool {
	_, ok := weekTypeWords[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// ParseDays parses a history window length. Empty input yields def.
func ParseDays(raw string, def int) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxHistoryDays {
		return 0, invalid("days", "Укажите число дней от 1 до 365, например <code>/history 30</code>.")
	}
	return n, nil
}

// ParseTimezone validates an IANA timezone name.
func ParseTimezone(raw string) (*time.Location, error) {
	name := strings.TrimSpace(raw)
	if name == "" || strings.EqualFold(name, "local") {
		return nil, invalid("timezone", "Укажите часовой пояс в формате IANA, например <code>Europe/Moscow</code>.")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, invalid("timezone", "Неизвестный часовой пояс. Пример: <code>Europe/Moscow</code>, <code>Asia/Almaty</code>.")
	}
	return loc, nil
}

const (
	maxPortionKcal = 10000
	minHeightCm    = 100
	maxHeightCm    = 250
	minBirthYear   = 1900
	minAgeYears    = 10
)

const bodyHint = "Формат: <code>/body рост год_рождения пол активность цель</code>, " +
	"например <code>/body 180 1990 м средняя похудение</code>.\n" +
	"Пол: м или ж. Активность: минимальная, низкая, средняя, высокая, очень_высокая. " +
	"Цель: похудение, поддержание, набор."

var genderWords = map[string]string{
	"m":       model.GenderMale,
	"м":       model.GenderMale,
	"муж":     model.GenderMale,
	"мужской": model.GenderMale,
	"male":    model.GenderMale,
	"f":       model.GenderFemale,
	"ж":       model.GenderFemale,
	"жен":     model.GenderFemale,
	"женский": model.GenderFemale,
	"female":  model.GenderFemale,
}

var activityWords = map[string]string{
	"sedentary":     model.ActivitySedentary,
	"минимальная":   model.ActivitySedentary,
	"сидячая":       model.ActivitySedentary,
	"light":         model.ActivityLight,
	"низкая":        model.ActivityLight,
	"лёгкая":        model.ActivityLight,
	"легкая":        model.ActivityLight,
	"moderate":      model.ActivityModerate,
	"средняя":       model.ActivityModerate,
	"умеренная":     model.ActivityModerate,
	"active":        model.ActivityActive,
	"высокая":       model.ActivityActive,
	"very_active":   model.ActivityVeryActive,
	"очень_высокая": model.ActivityVeryActive,
}

var goalWords = map[string]string{
	"lose":        model.GoalLose,
	"похудение":   model.GoalLose,
	"сбросить":    model.GoalLose,
	"maintain":    model.GoalMaintain,
	"поддержание": model.GoalMaintain,
	"удержать":    model.GoalMaintain,
	"gain":        model.GoalGain,
	"набор":       model.GoalGain,
	"набрать":     model.GoalGain,
}

// ParseCalories accepts a whole number of kcal for one portion.
func ParseCalories(raw string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "ккал"), "kcal"))
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > maxPortionKcal {
		return 0, invalid("calories", "Укажите калории целым числом от 1 до 10000, например <code>500</code>.")
	}
	return n, nil
}

// BodyParams are the inputs of the calorie norm.
type BodyParams struct {
	HeightCm  int
	BirthYear int
	Gender    string
	Activity  string
	Goal      string
}

// ParseBody parses "<height> <birth year> <gender> <activity> <goal>".
// currentYear bounds the birth year.
func ParseBody(raw string, currentYear int) (BodyParams, error) {
	tokens := strings.Fields(strings.ToLower(raw))
	if len(tokens) != 5 {
		return BodyParams{}, invalid("body", bodyHint)
	}
	var p BodyParams
	var err error
	if p.HeightCm, err = strconv.Atoi(tokens[0]); err != nil || p.HeightCm < minHeightCm || p.HeightCm > maxHeightCm {
		return BodyParams{}, invalid("height", "Рост указывается в сантиметрах, от 100 до 250.")
	}
	if p.BirthYear, err = strconv.Atoi(tokens[1]); err != nil || p.BirthYear < minBirthYear || p.BirthYear > currentYear-minAgeYears {
		return BodyParams{}, invalid("birth_year", fmt.Sprintf("Год рождения указывается четырьмя цифрами, от %d до %d.", minBirthYear, currentYear-minAgeYears))
	}
	var ok bool
	if p.Gender, ok = genderWords[tokens[2]]; !ok {
		return BodyParams{}, invalid("gender", "Пол: <b>м</b> или <b>ж</b>.")
	}
	if p.Activity, ok = activityWords[tokens[3]]; !ok {
		return BodyParams{}, invalid("activity", "Активность: минимальная, низкая, средняя, высокая или очень_высокая.")
	}
	if p.Goal, ok = goalWords[tokens[4]]; !ok {
		return BodyParams{}, invalid("goal", "Цель: похудение, поддержание или набор.")
	}
	return p, nil
}
