package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"discipline-bot/internal/logging"
	"discipline-bot/internal/metrics"
	"discipline-bot/internal/model"
	"discipline-bot/internal/service"
)

const (
	cbLogStatusPrefix = "logstatus:"

	defaultHistoryDays = 7
	adminUsersLimit    = 50
)

func (b *Bot) handleStart(user *model.User, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}
	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я помогу держать дисциплину тренировок и следить за весом.</b>\n\n%s",
		escape(name), helpText,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleWeight(ctx context.Context, user *model.User, chatID int64, args string) error {
	if args == "" {
		b.setStage(user.TelegramID, stageWeight)
		return b.sendWithReplyMarkup(chatID,
			"⚖️ <b>Введите текущий вес</b>\n\nУкажите вес в килограммах одним числом, например <code>82.4</code>.",
			cancelKeyboard())
	}
	return b.recordWeight(ctx, user, chatID, args)
}

func (b *Bot) recordWeight(ctx context.Context, user *model.User, chatID int64, raw string) error {
	value, err := service.ParseWeight(raw)
	if err != nil {
		return err
	}
	entry, err := b.weights.Record(ctx, user, b.now(), value)
	if err != nil {
		return err
	}
	b.clearStage(user.TelegramID)
	metrics.IncEntryRecorded("weight")
	logging.FromContext(ctx, b.log).Info().Float64("weight", entry.Value).Msg("weight recorded")

	text := fmt.Sprintf("✅ <b>Вес сохранён!</b>\n\n⚖️ Текущий вес: <b>%s кг</b>", formatKg(entry.Value))
	if user.TargetWeight != nil {
		text += fmt.Sprintf("\n🎯 До цели: %+.1f кг", entry.Value-*user.TargetWeight)
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleTarget(ctx context.Context, user *model.User, chatID int64, args string) error {
	if args == "" {
		b.setStage(user.TelegramID, stageTarget)
		return b.sendWithReplyMarkup(chatID, "🎯 Введите целевой вес в килограммах, например <code>75</code>.", cancelKeyboard())
	}
	return b.setTarget(ctx, user, chatID, args)
}

func (b *Bot) setTarget(ctx context.Context, user *model.User, chatID int64, raw string) error {
	value, err := service.ParseWeight(raw)
	if err != nil {
		return err
	}
	if err := b.weights.SetTarget(ctx, user, value); err != nil {
		return err
	}
	b.clearStage(user.TelegramID)
	return b.sendText(chatID, fmt.Sprintf("🎯 Целевой вес установлен: <b>%s кг</b>", formatKg(value)))
}

func (b *Bot) handleLog(ctx context.Context, user *model.User, chatID int64, args string) error {
	if args == "" {
		return b.sendWithReplyMarkup(chatID, "Выберите статус тренировки:", logStatusKeyboard())
	}
	parsed, err := service.ParseLogArgs(args)
	if err != nil {
		return err
	}
	return b.recordMark(ctx, user, chatID, service.DisciplineInput{
		Status:      parsed.Status,
		DurationMin: parsed.DurationMin,
		Notes:       parsed.Notes,
	})
}

func (b *Bot) handleTaskMark(ctx context.Context, user *model.User, chatID int64, args, status string) error {
	task, err := service.ParseTaskName(args)
	if err != nil {
		return err
	}
	return b.recordMark(ctx, user, chatID, service.DisciplineInput{Task: task, Status: status})
}

func (b *Bot) recordMark(ctx context.Context, user *model.User, chatID int64, in service.DisciplineInput) error {
	in.At = b.now()
	entry, err := b.discipline.Record(ctx, user, in)
	if err != nil {
		return err
	}
	metrics.IncEntryRecorded("discipline")
	logging.FromContext(ctx, b.log).Info().
		Str("task", entry.Task).
		Str("status", entry.Status).
		Msg("discipline event recorded")
	return b.sendText(chatID, markReply(entry))
}

func (b *Bot) handleHistory(ctx context.Context, user *model.User, chatID int64, args string) error {
	days, err := service.ParseDays(args, defaultHistoryDays)
	if err != nil {
		return err
	}
	now := b.userNow(user)
	h, err := b.history.LastDays(ctx, user, now, days)
	if err != nil {
		return err
	}
	return b.sendText(chatID, formatHistory(h, days, now.Location()))
}

func (b *Bot) handleStats(ctx context.Context, user *model.User, chatID int64) error {
	st, err := b.reports.Stats(ctx, user, b.userNow(user))
	if err != nil {
		return err
	}
	if err := b.sendText(chatID, formatStats(st)); err != nil {
		return err
	}
	if service.LowDiscipline(st.Score, st.Scheduled) {
		return b.sendText(chatID, lowDisciplineWarning)
	}
	return nil
}

func (b *Bot) handleReport(ctx context.Context, user *model.User, chatID int64) error {
	r, err := b.reports.Monthly(ctx, user, b.userNow(user))
	if err != nil {
		return err
	}
	if err := b.sendText(chatID, formatMonthly(r)); err != nil {
		return err
	}
	if service.LowDiscipline(r.Score, r.Scheduled) {
		return b.sendText(chatID, lowDisciplineWarning)
	}
	return nil
}

// handleSchedule shows the schedule, clears it, or replaces the slots of
// one week type: /schedule пн ср пт 19:00 [even|odd|any].
func (b *Bot) handleSchedule(ctx context.Context, user *model.User, chatID int64, args string) error {
	if args == "" {
		slots, err := b.discipline.Schedule(ctx, user)
		if err != nil {
			return err
		}
		return b.sendText(chatID, formatSchedule(slots, user.WeekParityOffset, b.userNow(user))+"\n\n"+scheduleHint)
	}

	lower := strings.ToLower(args)
	if lower == "clear" || lower == "очистить" {
		if err := b.discipline.ClearSchedule(ctx, user); err != nil {
			return err
		}
		return b.sendText(chatID, "🗑 Расписание очищено.")
	}

	var (
		dayTokens []string
		clock     string
		weekType  = model.WeekAny
	)
	for _, tok := range strings.Fields(strings.ReplaceAll(args, ",", " ")) {
		switch {
		case strings.Contains(tok, ":"):
			clock = tok
		case service.IsWeekTypeWord(tok):
			wt, err := service.ParseWeekType(tok)
			if err != nil {
				return err
			}
			weekType = wt
		default:
			dayTokens = append(dayTokens, tok)
		}
	}
	days, err := service.ParseWeekdays(dayTokens)
	if err != nil {
		return err
	}
	if clock == "" {
		return &service.ValidationError{Field: "time", Message: "Укажите время тренировки, например <code>/schedule пн ср пт 19:00</code>."}
	}
	slots, err := b.discipline.SetSchedule(ctx, user, days, clock, weekType)
	if err != nil {
		return err
	}
	return b.sendText(chatID, "✅ Расписание обновлено.\n\n"+formatSchedule(slots, user.WeekParityOffset, b.userNow(user)))
}

func (b *Bot) handleWeek(ctx context.Context, user *model.User, chatID int64, args string) error {
	wt, err := service.ParseWeekType(args)
	if err != nil || wt == model.WeekAny {
		return &service.ValidationError{Field: "week_type", Message: "Укажите, какая сейчас неделя: <code>/week even</code> (чётная) или <code>/week odd</code> (нечётная)."}
	}
	if _, err := b.discipline.SetWeekParity(ctx, user, b.userNow(user), wt == model.WeekEven); err != nil {
		return err
	}
	return b.sendText(chatID, fmt.Sprintf("📅 Текущая неделя отмечена как <b>%s</b>.", weekLabel(wt == model.WeekEven)))
}

func (b *Bot) handleTimezone(ctx context.Context, user *model.User, chatID int64, args string) error {
	switch strings.ToLower(args) {
	case "":
		loc := service.UserLocation(user, b.cfg.Location)
		return b.sendText(chatID, fmt.Sprintf("🕒 Часовой пояс: <b>%s</b>\n\nИзменить: <code>/tz Europe/Moscow</code>, сбросить: <code>/tz reset</code>.", escape(loc.String())))
	case "reset", "сброс":
		if err := b.users.SetTimezone(ctx, user.ID, ""); err != nil {
			return err
		}
		user.Timezone = ""
		return b.sendText(chatID, fmt.Sprintf("🕒 Часовой пояс сброшен на <b>%s</b>.", escape(b.cfg.Location.String())))
	}

	loc, err := service.ParseTimezone(args)
	if err != nil {
		return err
	}
	if err := b.users.SetTimezone(ctx, user.ID, loc.String()); err != nil {
		return err
	}
	user.Timezone = loc.String()
	return b.sendText(chatID, fmt.Sprintf("🕒 Часовой пояс установлен: <b>%s</b>.", escape(loc.String())))
}

func (b *Bot) handleProfile(ctx context.Context, user *model.User, chatID int64) error {
	now := b.userNow(user)
	p, err := b.profiles.Profile(ctx, user, now)
	if err != nil {
		return err
	}
	cal, err := b.calories.Summary(ctx, user, now)
	if err != nil {
		return err
	}
	return b.sendText(chatID, formatProfile(p)+"\n\n"+formatCalories(cal))
}

func (b *Bot) handleCalories(ctx context.Context, user *model.User, chatID int64, args string) error {
	if args == "" {
		b.setStage(user.TelegramID, stageCalories)
		return b.sendWithReplyMarkup(chatID,
			"🔥 <b>Добавить калории</b>\n\nВведите количество ккал целым числом, например <code>500</code>.",
			cancelKeyboard())
	}
	return b.recordCalories(ctx, user, chatID, args)
}

func (b *Bot) recordCalories(ctx context.Context, user *model.User, chatID int64, raw string) error {
	kcal, err := service.ParseCalories(raw)
	if err != nil {
		return err
	}
	now := b.userNow(user)
	if _, err := b.calories.Record(ctx, user, now, kcal); err != nil {
		return err
	}
	b.clearStage(user.TelegramID)
	metrics.IncEntryRecorded("calories")
	logging.FromContext(ctx, b.log).Info().Int("kcal", kcal).Msg("calories recorded")

	sum, err := b.calories.Summary(ctx, user, now)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("✅ <b>+%d ккал</b> добавлено.\n\n📅 Сегодня всего: <b>%d</b> ккал", kcal, sum.Today)
	if sum.Profile != nil {
		text += fmt.Sprintf(" из %d", sum.Profile.DailyTarget)
	}
	return b.sendText(chatID, text)
}

// handleBody shows or sets the body parameters: /body 180 1990 м средняя похудение.
func (b *Bot) handleBody(ctx context.Context, user *model.User, chatID int64, args string) error {
	now := b.userNow(user)
	if args == "" {
		return b.sendText(chatID, formatBody(user)+"\n\n"+bodyHint)
	}
	p, err := service.ParseBody(args, now.Year())
	if err != nil {
		return err
	}
	if err := b.calories.SetBody(ctx, user, p); err != nil {
		return err
	}
	sum, err := b.calories.Summary(ctx, user, now)
	if err != nil {
		return err
	}
	return b.sendText(chatID, "✅ Параметры сохранены.\n\n"+formatCalories(sum))
}

func (b *Bot) handleExport(ctx context.Context, user *model.User, chatID int64) error {
	now := b.userNow(user)
	data, err := b.reports.Export(ctx, user, now, now.Location())
	if err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("discipline-%s.yaml", now.Format("2006-01-02")),
		Bytes: data,
	})
	doc.Caption = "📦 Все ваши записи в формате YAML."
	return b.send(doc)
}

// handleAdmin serves /admin (totals), /admin users and /admin user <tg_id>.
func (b *Bot) handleAdmin(ctx context.Context, telegramID, chatID int64, args string) error {
	if !b.cfg.IsAdmin(telegramID) {
		return b.sendText(chatID, msgAdminOnly)
	}
	fields := strings.Fields(strings.ToLower(args))
	switch {
	case len(fields) == 0:
		return b.adminTotals(ctx, chatID)
	case fields[0] == "users":
		users, err := b.users.ListRecent(ctx, adminUsersLimit)
		if err != nil {
			return err
		}
		return b.sendText(chatID, formatUserList(users, adminUsersLimit, b.cfg.Location))
	case fields[0] == "user" && len(fields) == 2:
		return b.adminUser(ctx, chatID, fields[1])
	default:
		return b.sendText(chatID, adminHint)
	}
}

func (b *Bot) adminTotals(ctx context.Context, chatID int64) error {
	users, err := b.users.Count(ctx)
	if err != nil {
		return err
	}
	weights, marks, err := b.reports.Totals(ctx)
	if err != nil {
		return err
	}
	return b.sendText(chatID, fmt.Sprintf(
		"🛠 <b>Статистика бота</b>\n\n👥 Пользователей: %d\n⚖️ Записей веса: %d\n🏋️ Отметок задач: %d\n\n%s",
		users, weights, marks, adminHint,
	))
}

func (b *Bot) adminUser(ctx context.Context, chatID int64, raw string) error {
	tgID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return &service.ValidationError{Field: "tg_id", Message: "Укажите числовой Telegram ID: <code>/admin user 123456</code>."}
	}
	user, err := b.users.FindByTelegramID(ctx, tgID)
	if err != nil {
		return err
	}
	if user == nil {
		return b.sendText(chatID, fmt.Sprintf("Пользователь <code>%d</code> не найден.", tgID))
	}
	p, err := b.profiles.Profile(ctx, user, b.userNow(user))
	if err != nil {
		return err
	}
	return b.sendText(chatID, fmt.Sprintf("🆔 <code>%d</code> %s\n\n%s", user.TelegramID, escape(displayName(user)), formatProfile(p)))
}

// handleBroadcast sends the HTML text to every registered user. Failed
// deliveries are counted and logged, never retried.
func (b *Bot) handleBroadcast(ctx context.Context, telegramID, chatID int64, text string) error {
	if !b.cfg.IsAdmin(telegramID) {
		return b.sendText(chatID, msgAdminOnly)
	}
	if text == "" {
		return &service.ValidationError{Field: "broadcast", Message: "Укажите текст рассылки: <code>/broadcast Всем привет!</code>"}
	}
	ids, err := b.users.ListTelegramIDs(ctx)
	if err != nil {
		return err
	}

	log := logging.FromContext(ctx, b.log)
	var sent, failed int
	for _, id := range ids {
		msg := tgbotapi.NewMessage(id, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(msg); err != nil {
			failed++
			metrics.IncBroadcast("failed")
			log.Warn().Err(err).Int64("to", id).Msg("broadcast delivery")
			continue
		}
		sent++
		metrics.IncBroadcast("sent")
	}
	log.Info().Int("sent", sent).Int("failed", failed).Msg("broadcast finished")

	return b.sendText(chatID, fmt.Sprintf(
		"✅ <b>Рассылка завершена!</b>\n\n• Всего пользователей: %d\n• Успешно отправлено: %d\n• Ошибок: %d",
		len(ids), sent, failed,
	))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		b.ack(ctx, cb.ID, "")
		return err
	}

	switch {
	case strings.HasPrefix(cb.Data, cbLogStatusPrefix):
		status := strings.TrimPrefix(cb.Data, cbLogStatusPrefix)
		if status != model.StatusDone && status != model.StatusMissed {
			b.ack(ctx, cb.ID, "❌ Неверный статус")
			return nil
		}
		b.ack(ctx, cb.ID, "")
		return b.recordMark(ctx, user, cb.Message.Chat.ID, service.DisciplineInput{Status: status})
	default:
		b.ack(ctx, cb.ID, "")
		return nil
	}
}

func (b *Bot) ack(ctx context.Context, callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		logging.FromContext(ctx, b.log).Warn().Err(err).Msg("callback ack")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, user *model.User, msg *tgbotapi.Message) (bool, error) {
	chatID := msg.Chat.ID
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelWeight):
		return true, b.handleWeight(ctx, user, chatID, "")
	case strings.ToLower(menuLabelWorkout):
		return true, b.handleLog(ctx, user, chatID, "")
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(ctx, user, chatID)
	case strings.ToLower(menuLabelReport):
		return true, b.handleReport(ctx, user, chatID)
	case strings.ToLower(menuLabelHistory):
		return true, b.handleHistory(ctx, user, chatID, "")
	case strings.ToLower(menuLabelCalories):
		return true, b.handleCalories(ctx, user, chatID, "")
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(chatID, helpText)
	default:
		return false, nil
	}
}
