package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"discipline-bot/internal/bot"
	"discipline-bot/internal/config"
	"discipline-bot/internal/httpserver"
	"discipline-bot/internal/logging"
	"discipline-bot/internal/metrics"
	"discipline-bot/internal/repository"
	"discipline-bot/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(cfg.LogLevel, cfg.LogFormat).Error().Err(err).Msg("invalid configuration")
		stop()
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := repository.NewDB(cfg.DBPath, log)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("open database")
		stop()
		os.Exit(1)
	}
	defer func() {
		if err := repository.Close(db); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}()

	userRepo := repository.NewUserRepository(db)
	weightRepo := repository.NewWeightRepository(db)
	disciplineRepo := repository.NewDisciplineRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	calorieRepo := repository.NewCalorieRepository(db)

	api, err := bot.NewAPI(cfg.BotToken, cfg.Debug)
	if err != nil {
		log.Error().Err(err).Msg("telegram authorization")
		_ = repository.Close(db)
		stop()
		os.Exit(1)
	}
	log.Info().Str("username", api.Self.UserName).Msg("authorized on telegram")

	metrics.MustRegister()

	if cfg.MetricsAddr != "" {
		sqlDB, err := db.DB()
		if err != nil {
			log.Error().Err(err).Msg("metrics listener disabled")
		} else {
			go func() {
				if err := httpserver.New(cfg.MetricsAddr, sqlDB, log).Start(ctx); err != nil {
					log.Error().Err(err).Msg("metrics listener stopped")
				}
			}()
		}
	}

	telegramBot := bot.New(api, cfg, log, bot.Deps{
		Users:      userRepo,
		Weights:    service.NewWeightService(weightRepo, userRepo),
		Discipline: service.NewDisciplineService(disciplineRepo, scheduleRepo, userRepo),
		History:    service.NewHistoryService(weightRepo, disciplineRepo),
		Reports:    service.NewReportService(weightRepo, disciplineRepo, scheduleRepo, calorieRepo),
		Profiles:   service.NewProfileService(weightRepo, scheduleRepo),
		Calories:   service.NewCalorieService(calorieRepo, weightRepo, userRepo),
	})

	log.Info().Str("timezone", cfg.Timezone).Str("db", cfg.DBPath).Msg("discipline bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("bot stopped with error")
	}
	log.Info().Msg("shutdown complete")
}
