package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"discipline-bot/internal/config"
	"discipline-bot/internal/logging"
	"discipline-bot/internal/metrics"
	"discipline-bot/internal/model"
	"discipline-bot/internal/repository"
	"discipline-bot/internal/service"
)

type promptStage int

const (
	stageNone promptStage = iota
	stageWeight
	stageTarget
	stageCalories
)

const (
	msgStorageFailure = "⚠️ Не удалось сохранить или прочитать данные. Попробуйте ещё раз чуть позже."
	msgGenericFailure = "⚠️ Что-то пошло не так. Попробуйте ещё раз."
	msgUnknown        = "Я пока не понял сообщение. Отправьте вес числом, например <code>82.4</code>, или загляните в /help."
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Deps groups the storage and services the handlers call.
type Deps struct {
	Users      *repository.UserRepository
	Weights    *service.WeightService
	Discipline *service.DisciplineService
	History    *service.HistoryService
	Reports    *service.ReportService
	Profiles   *service.ProfileService
	Calories   *service.CalorieService
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api        API
	users      *repository.UserRepository
	weights    *service.WeightService
	discipline *service.DisciplineService
	history    *service.HistoryService
	reports    *service.ReportService
	profiles   *service.ProfileService
	calories   *service.CalorieService
	cfg        config.Config
	log        *zerolog.Logger
	now        func() time.Time
	stages     map[int64]promptStage
	mu         sync.Mutex
}

// NewAPI authorizes against Telegram with the bot token.
func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	api.Debug = debug
	return api, nil
}

func New(api API, cfg config.Config, log *zerolog.Logger, deps Deps) *Bot {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Bot{
		api:        api,
		users:      deps.Users,
		weights:    deps.Weights,
		discipline: deps.Discipline,
		history:    deps.History,
		reports:    deps.Reports,
		profiles:   deps.Profiles,
		calories:   deps.Calories,
		cfg:        cfg,
		log:        log,
		now:        clock,
		stages:     make(map[int64]promptStage),
	}
}

// Start polls updates and handles them one by one until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	// Updates already buffered when ctx is cancelled are still handled to completion.
	handleCtx := context.WithoutCancel(ctx)
	for update := range updates {
		b.HandleUpdate(handleCtx, update)
	}

	return ctx.Err()
}

// HandleUpdate routes one update and turns handler errors into replies.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	started := time.Now()
	defer func() { metrics.ObserveUpdate(time.Since(started)) }()

	var (
		chatID int64
		err    error
	)
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil || !cb.Message.Chat.IsPrivate() {
			metrics.IncUpdate("ignored")
			return
		}
		metrics.IncUpdate("callback")
		ctx = b.scope(ctx, cb.From.ID)
		chatID = cb.Message.Chat.ID
		err = b.handleCallback(ctx, cb)
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
			metrics.IncUpdate("ignored")
			return
		}
		metrics.IncUpdate("message")
		ctx = b.scope(ctx, msg.From.ID)
		chatID = msg.Chat.ID
		err = b.handleMessage(ctx, msg)
	default:
		metrics.IncUpdate("ignored")
		return
	}

	if err != nil {
		b.replyError(ctx, chatID, err)
	}
}

func (b *Bot) scope(ctx context.Context, tgID int64) context.Context {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithTgID(ctx, tgID)
	return logging.WithLogger(ctx, logging.With(ctx, b.log))
}

// replyError is the single place where errors become user-visible. The
// update is dropped afterwards; nothing is retried.
func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	log := logging.FromContext(ctx, b.log)

	var (
		validationErr *service.ValidationError
		storageErr    *repository.StorageError
		deliveryErr   *deliveryError
	)
	var reply string
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.As(err, &validationErr):
		metrics.IncValidationFailure(validationErr.Field)
		log.Info().Str("field", validationErr.Field).Msg("input rejected")
		reply = "❌ " + validationErr.Message
	case errors.As(err, &storageErr):
		metrics.IncStorageError(storageErr.Op)
		log.Error().Err(err).Str("op", storageErr.Op).Msg("storage failure, update dropped")
		reply = msgStorageFailure
	case errors.As(err, &deliveryErr):
		log.Warn().Err(err).Msg("reply not delivered")
		return
	default:
		log.Error().Err(err).Msg("handle update")
		reply = msgGenericFailure
	}

	if sendErr := b.sendText(chatID, reply); sendErr != nil {
		log.Warn().Err(sendErr).Msg("error reply not delivered")
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	if msg.IsCommand() {
		logging.FromContext(ctx, b.log).Info().
			Str("command", msg.Command()).
			Str("args", msg.CommandArguments()).
			Msg("command received")
		metrics.IncTelegramCommand(commandLabel(msg.Command()))
		return b.handleCommand(ctx, user, msg)
	}

	text := strings.TrimSpace(msg.Text)

	if isCancelInput(text) {
		b.clearStage(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	}

	if handled, err := b.handleMenuAlias(ctx, user, msg); handled {
		return err
	}

	switch b.stage(msg.From.ID) {
	case stageWeight:
		return b.recordWeight(ctx, user, msg.Chat.ID, text)
	case stageTarget:
		return b.setTarget(ctx, user, msg.Chat.ID, text)
	case stageCalories:
		return b.recordCalories(ctx, user, msg.Chat.ID, text)
	}

	if service.LooksNumeric(text) {
		return b.recordWeight(ctx, user, msg.Chat.ID, text)
	}

	return b.sendText(msg.Chat.ID, msgUnknown)
}

func (b *Bot) handleCommand(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	b.clearStage(msg.From.ID)
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		return b.handleStart(user, msg)
	case "help":
		return b.sendText(chatID, helpText)
	case "weight":
		return b.handleWeight(ctx, user, chatID, args)
	case "target":
		return b.handleTarget(ctx, user, chatID, args)
	case "log":
		return b.handleLog(ctx, user, chatID, args)
	case "done":
		return b.handleTaskMark(ctx, user, chatID, args, model.StatusDone)
	case "missed":
		return b.handleTaskMark(ctx, user, chatID, args, model.StatusMissed)
	case "history":
		return b.handleHistory(ctx, user, chatID, args)
	case "stats":
		return b.handleStats(ctx, user, chatID)
	case "report":
		return b.handleReport(ctx, user, chatID)
	case "schedule":
		return b.handleSchedule(ctx, user, chatID, args)
	case "week":
		return b.handleWeek(ctx, user, chatID, args)
	case "tz":
		return b.handleTimezone(ctx, user, chatID, args)
	case "profile":
		return b.handleProfile(ctx, user, chatID)
	case "export":
		return b.handleExport(ctx, user, chatID)
	case "calories":
		return b.handleCalories(ctx, user, chatID, args)
	case "body":
		return b.handleBody(ctx, user, chatID, args)
	case "admin":
		return b.handleAdmin(ctx, msg.From.ID, chatID, args)
	case "broadcast":
		return b.handleBroadcast(ctx, msg.From.ID, chatID, args)
	case "cancel":
		return b.sendText(chatID, "⏪ Ввод отменён.")
	default:
		return b.sendText(chatID, "Команда не поддерживается. Загляни в /help.")
	}
}

// knownCommands bounds the label set of the command counter.
var knownCommands = map[string]bool{
	"start": true, "help": true, "weight": true, "target": true, "log": true,
	"done": true, "missed": true, "history": true, "stats": true, "report": true,
	"schedule": true, "week": true, "tz": true, "profile": true, "export": true,
	"calories": true, "body": true, "admin": true, "broadcast": true, "cancel": true,
}

func commandLabel(command string) string {
	if knownCommands[command] {
		return command
	}
	return "unknown"
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	user, created, err := b.users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
	if err != nil {
		return nil, err
	}
	if created {
		metrics.IncUsersRegistered()
		logging.FromContext(ctx, b.log).Info().Uint("user_id", user.ID).Msg("user registered")
	}
	return user, nil
}

// userNow is the current moment in the user's timezone.
func (b *Bot) userNow(user *model.User) time.Time {
	return b.now().In(service.UserLocation(user, b.cfg.Location))
}

// deliveryError marks a failed Telegram send, so that no second reply is attempted.
type deliveryError struct {
	err error
}

func (e *deliveryError) Error() string { return "send message: " + e.err.Error() }
func (e *deliveryError) Unwrap() error { return e.err }

func (b *Bot) send(c tgbotapi.Chattable) error {
	if _, err := b.api.Send(c); err != nil {
		return &deliveryError{err: err}
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	return b.send(msg)
}

func (b *Bot) stage(userID int64) promptStage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stages[userID]
}

func (b *Bot) setStage(userID int64, stage promptStage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stages[userID] = stage
}

func (b *Bot) clearStage(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.stages, userID)
}
