package bot

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"discipline-bot/internal/model"
	"discipline-bot/internal/service"
)

const (
	maxHistoryLines = 40
	// maxHistoryRunes keeps a history reply, header included, under
	// Telegram's 4096-character message limit.
	maxHistoryRunes = 3600
)

const msgAdminOnly = "⛔ Команда доступна только администраторам."

const adminHint = "Команды: <code>/admin users</code>, <code>/admin user &lt;tg_id&gt;</code>, " +
	"<code>/broadcast &lt;текст&gt;</code>."

const bodyHint = "Изменить: <code>/body рост год_рождения пол активность цель</code>\n" +
	"Например: <code>/body 180 1990 м средняя похудение</code>\n" +
	"Активность: минимальная, низкая, средняя, высокая, очень_высокая. Цель: похудение, поддержание, набор."

var goalLabels = map[string]string{
	model.GoalLose:     "похудение",
	model.GoalMaintain: "поддержание",
	model.GoalGain:     "набор массы",
}

var activityLabels = map[string]string{
	model.ActivitySedentary:  "минимальная",
	model.ActivityLight:      "низкая",
	model.ActivityModerate:   "средняя",
	model.ActivityActive:     "высокая",
	model.ActivityVeryActive: "очень высокая",
}

const helpText = "ℹ️ <b>Команды</b>\n" +
	"• /weight &lt;кг&gt; — записать вес (можно просто отправить число)\n" +
	"• /log &lt;выполнено|пропущено&gt; [минуты] [заметка] — отметить тренировку\n" +
	"• /done &lt;задача&gt; — отметить привычку выполненной\n" +
	"• /missed &lt;задача&gt; — отметить пропуск привычки\n" +
	"• /history [дни] — история записей (по умолчанию 7 дней)\n" +
	"• /stats — статистика за 30 дней\n" +
	"• /report — отчёт за текущий месяц\n" +
	"• /target &lt;кг&gt; — целевой вес\n" +
	"• /schedule — расписание тренировок\n" +
	"• /week even|odd — чётность текущей недели\n" +
	"• /tz &lt;пояс&gt; — часовой пояс\n" +
	"• /profile — профиль\n" +
	"• /calories &lt;ккал&gt; — добавить съеденные калории\n" +
	"• /body — рост, возраст и цель для нормы калорий\n" +
	"• /export — выгрузить все данные\n" +
	"• /cancel — отменить текущий ввод"

const scheduleHint = "Изменить: <code>/schedule пн ср пт 19:00</code>\n" +
	"Только по чётным неделям: <code>/schedule сб 10:00 even</code>\n" +
	"Очистить: <code>/schedule clear</code>"

const lowDisciplineWarning = "⚠️ <b>Внимание!</b>\n\n" +
	"Дисциплина ниже 70%. Это зона риска.\n\n" +
	"💪 Стабильность — основа прогресса. Возвращайтесь в ритм!"

var weekdayLabels = [7]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

func escape(s string) string {
	return html.EscapeString(s)
}

func formatKg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptKg(v *float64) string {
	if v == nil {
		return "нет данных"
	}
	return fmt.Sprintf("%.1f кг", *v)
}

func formatSignedKg(v *float64) string {
	if v == nil {
		return "нет данных"
	}
	if *v == 0 {
		return "0 кг"
	}
	return fmt.Sprintf("%+.1f кг", *v)
}

func taskLabel(task string) string {
	if task == model.TaskWorkout {
		return "тренировка"
	}
	return task
}

func weekLabel(even bool) string {
	if even {
		return "чётная"
	}
	return "нечётная"
}

func markReply(e *model.DisciplineEntry) string {
	if e.Task == model.TaskWorkout {
		if e.Status == model.StatusDone {
			return "✅ <b>Тренировка засчитана!</b>\n\n💪 Отличная работа! Продолжайте в том же духе!"
		}
		return "⚠️ <b>Пропуск зафиксирован</b>\n\n💪 Не расстраивайтесь! Следующая тренировка без срывов!"
	}
	if e.Status == model.StatusDone {
		return fmt.Sprintf("✅ Отмечено: <b>%s</b> выполнено.", escape(e.Task))
	}
	return fmt.Sprintf("⚠️ Отмечено: <b>%s</b> пропущено.", escape(e.Task))
}

func formatHistory(h *service.History, days int, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📜 <b>История за %d дн.</b>\n", days))
	sb.WriteString(fmt.Sprintf("📅 %s — %s\n\n", h.From.In(loc).Format("02.01.2006"), h.To.In(loc).Format("02.01.2006")))

	if h.Empty() {
		sb.WriteString("Записей за этот период нет.")
		return sb.String()
	}

	weightLines := make([]string, 0, len(h.Weights))
	for _, w := range h.Weights {
		weightLines = append(weightLines, fmt.Sprintf("• %s — %s кг", w.RecordedAt.In(loc).Format("02.01 15:04"), formatKg(w.Value)))
	}
	markLines := make([]string, 0, len(h.Discipline))
	for _, m := range h.Discipline {
		icon := "✅"
		if m.Status == model.StatusMissed {
			icon = "❌"
		}
		line := fmt.Sprintf("• %s — %s %s", m.OccurredAt.In(loc).Format("02.01 15:04"), icon, escape(taskLabel(m.Task)))
		if m.DurationMin != nil {
			line += fmt.Sprintf(" (%d мин)", *m.DurationMin)
		}
		if m.Notes != "" {
			line += " — " + escape(m.Notes)
		}
		markLines = append(markLines, line)
	}

	weightLines, skippedWeights := newestWithin(weightLines, maxHistoryLines, maxHistoryRunes/3)
	used := 0
	for _, l := range weightLines {
		used += utf8.RuneCountInString(l) + 1
	}
	markLines, skippedMarks := newestWithin(markLines, maxHistoryLines, maxHistoryRunes-used)

	sb.WriteString("⚖️ <b>Вес:</b>\n")
	if len(h.Weights) == 0 {
		sb.WriteString("— нет записей\n")
	}
	if skippedWeights > 0 {
		sb.WriteString(fmt.Sprintf("… ещё %d ранних записей\n", skippedWeights))
	}
	for _, l := range weightLines {
		sb.WriteString(l + "\n")
	}

	sb.WriteString("\n🏋️ <b>Задачи:</b>\n")
	if len(h.Discipline) == 0 {
		sb.WriteString("— нет отметок\n")
	}
	if skippedMarks > 0 {
		sb.WriteString(fmt.Sprintf("… ещё %d ранних отметок\n", skippedMarks))
	}
	for _, l := range markLines {
		sb.WriteString(l + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// newestWithin keeps the newest lines (the tail) that fit both maxLines and
// maxRunes, counting one newline per line.
func newestWithin(lines []string, maxLines, maxRunes int) ([]string, int) {
	i, used := len(lines), 0
	for i > 0 && len(lines)-i < maxLines {
		n := utf8.RuneCountInString(lines[i-1]) + 1
		if used+n > maxRunes {
			break
		}
		used += n
		i--
	}
	return lines[i:], i
}

func formatStats(st *service.Stats) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 <b>Статистика за %d дней</b>\n\n", service.StatsWindowDays))
	sb.WriteString("🏋️ <b>Тренировки:</b>\n")
	sb.WriteString(fmt.Sprintf("   ✅ Выполнено: %d\n", st.Done))
	sb.WriteString(fmt.Sprintf("   ❌ Пропущено: %d\n", st.Missed))
	sb.WriteString(fmt.Sprintf("   📅 Запланировано: %d\n\n", st.Scheduled))
	sb.WriteString(fmt.Sprintf("📈 <b>Дисциплина: %.1f%%</b>\n\n", st.Score))

	switch {
	case st.LatestWeight == nil:
		sb.WriteString("⚖️ <b>Вес:</b> нет данных")
	case st.WindowStartWeight == nil:
		sb.WriteString("⚖️ <b>Текущий вес:</b> " + formatOptKg(st.LatestWeight))
	default:
		sb.WriteString("⚖️ <b>Вес:</b>\n")
		sb.WriteString("   • Текущий: " + formatOptKg(st.LatestWeight) + "\n")
		sb.WriteString(fmt.Sprintf("   • %d дней назад: %s\n", service.StatsWindowDays, formatOptKg(st.WindowStartWeight)))
		sb.WriteString("   • Изменение: " + formatSignedKg(st.WeightChange))
	}

	var habits []string
	for task, n := range st.TasksDone {
		if task == model.TaskWorkout {
			continue
		}
		habits = append(habits, fmt.Sprintf("   • %s: %d", escape(task), n))
	}
	if len(habits) > 0 {
		sort.Strings(habits)
		sb.WriteString("\n\n✔️ <b>Привычки (выполнено):</b>\n")
		sb.WriteString(strings.Join(habits, "\n"))
	}
	return sb.String()
}

func formatMonthly(r *service.MonthlyReport) string {
	diffPercent := "нет данных"
	if r.DiffPercent != nil {
		diffPercent = fmt.Sprintf("%+.1f%%", *r.DiffPercent)
	}
	return fmt.Sprintf(
		"📊 <b>Месячный отчёт</b>\n"+
			"📅 Период: %s — %s\n\n"+
			"⚖️ <b>Прогресс веса:</b>\n"+
			"   • Стартовый вес: %s\n"+
			"   • Текущий вес: %s\n"+
			"   • Изменение: %s (%s)\n\n"+
			"🏋️ <b>Тренировки:</b>\n"+
			"   ✅ Выполнено: %d\n"+
			"   ❌ Пропущено: %d\n"+
			"   📅 Запланировано: %d\n\n"+
			"📈 <b>Дисциплина: %.1f%%</b>",
		r.From.Format("02.01.2006"), r.To.Format("02.01.2006"),
		formatOptKg(r.StartWeight), formatOptKg(r.EndWeight), formatSignedKg(r.Diff), diffPercent,
		r.Done, r.Missed, r.Scheduled,
		r.Score,
	)
}

func formatSchedule(slots []model.ScheduleSlot, offset int, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🗓 <b>Расписание тренировок</b> (сейчас %s неделя)\n", weekLabel(service.UserWeekEven(now, offset))))
	if len(slots) == 0 {
		sb.WriteString("— не задано")
		return sb.String()
	}
	for _, slot := range slots {
		line := fmt.Sprintf("• %s %s", weekdayLabels[slot.Weekday%7], slot.Time)
		switch slot.WeekType {
		case model.WeekEven:
			line += " (чётные)"
		case model.WeekOdd:
			line += " (нечётные)"
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatProfile(p *service.Profile) string {
	var sb strings.Builder
	sb.WriteString("👤 <b>Профиль</b>\n\n")
	if p.Latest != nil {
		sb.WriteString(fmt.Sprintf("⚖️ Текущий вес: <b>%s кг</b> (%s)\n",
			formatKg(p.Latest.Value), p.Latest.RecordedAt.In(p.Location).Format("02.01.2006")))
	} else {
		sb.WriteString("⚖️ Текущий вес: нет данных\n")
	}
	sb.WriteString("🎯 Цель: " + formatOptKg(p.Target) + "\n")
	if p.ToTarget != nil {
		sb.WriteString("📉 До цели: " + formatSignedKg(p.ToTarget) + "\n")
	}
	sb.WriteString(fmt.Sprintf("🗓 Тренировок в расписании: %d\n", p.Slots))
	sb.WriteString(fmt.Sprintf("📅 Сейчас %s неделя\n", weekLabel(p.WeekEven)))
	sb.WriteString("🕒 Часовой пояс: " + escape(p.Location.String()) + "\n")
	sb.WriteString("🚀 С нами с " + p.CreatedAt.In(p.Location).Format("02.01.2006"))
	return sb.String()
}

func displayName(u *model.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.Username != "" {
		name = strings.TrimSpace(name + " @" + u.Username)
	}
	return name
}

func formatBody(u *model.User) string {
	if u.HeightCm == nil || u.BirthYear == nil {
		return "🧍 <b>Параметры тела</b> не заданы."
	}
	gender := "мужской"
	if u.Gender == model.GenderFemale {
		gender = "женский"
	}
	return fmt.Sprintf("🧍 <b>Параметры тела</b>\n• Рост: %d см\n• Год рождения: %d\n• Пол: %s\n• Активность: %s\n• Цель: %s",
		*u.HeightCm, *u.BirthYear, gender, labelOr(activityLabels, u.ActivityLevel), labelOr(goalLabels, u.Goal))
}

func labelOr(labels map[string]string, key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return "не указано"
}

func formatCalories(sum *service.CalorieSummary) string {
	var sb strings.Builder
	sb.WriteString("🔥 <b>Калории</b>\n")
	if sum.Profile == nil {
		sb.WriteString(fmt.Sprintf("• Сегодня: %d ккал\n", sum.Today))
		sb.WriteString("Норма появится после <code>/body</code> и первой записи веса.")
		return sb.String()
	}
	p := sum.Profile
	sb.WriteString(fmt.Sprintf("• ИМТ: %.1f (%s)\n", p.BMI, p.BMICategory))
	sb.WriteString(fmt.Sprintf("• Базовый обмен: %.0f ккал\n", p.BMR))
	sb.WriteString(fmt.Sprintf("• Расход с активностью: %.0f ккал\n", p.TDEE))
	sb.WriteString(fmt.Sprintf("• Цель <b>%s</b> → <b>%d</b> ккал/день\n", labelOr(goalLabels, p.Goal), p.DailyTarget))
	sb.WriteString(fmt.Sprintf("• Сегодня: %d из %d ккал", sum.Today, p.DailyTarget))
	return sb.String()
}

func formatUserList(users []model.User, limit int, loc *time.Location) string {
	if len(users) == 0 {
		return "👥 <b>Список пользователей</b>\n\nПользователей пока нет."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👥 <b>Последние %d пользователей:</b>\n\n", limit))
	for i, u := range users {
		target := "не указан"
		if u.TargetWeight != nil {
			target = formatKg(*u.TargetWeight) + " кг"
		}
		sb.WriteString(fmt.Sprintf("%d. TG: <code>%d</code> %s | Цель: %s | %s\n",
			i+1, u.TelegramID, escape(displayName(&u)), target, u.CreatedAt.In(loc).Format("02.01.2006")))
	}
	if len(users) == limit {
		sb.WriteString(fmt.Sprintf("\n⚠️ Показаны только последние %d пользователей", limit))
	}
	return strings.TrimRight(sb.String(), "\n")
}
