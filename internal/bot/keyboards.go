package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnCancelDialog   = "⏪ Отменить ввод"
	btnDone           = "✅ Выполнено"
	btnMissed         = "❌ Пропущено"
	menuLabelWeight   = "⚖️ Вес"
	menuLabelWorkout  = "🏋️ Тренировка"
	menuLabelCalories = "🔥 Калории"
	menuLabelStats    = "📊 Статистика"
	menuLabelReport   = "📈 Отчёт"
	menuLabelHistory  = "📜 История"
	menuLabelHelp     = "ℹ️ Помощь"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelWeight),
			tgbotapi.NewKeyboardButton(menuLabelWorkout),
			tgbotapi.NewKeyboardButton(menuLabelCalories),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelReport),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelHistory),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func logStatusKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnDone, cbLogStatusPrefix+"done"),
			tgbotapi.NewInlineKeyboardButtonData(btnMissed, cbLogStatusPrefix+"missed"),
		),
	)
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод" || value == "отмена"
}
