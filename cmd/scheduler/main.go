package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"chatlog-digest/internal/adapters/checklist"
	"chatlog-digest/internal/app"
	"chatlog-digest/internal/infra/config"
	applog "chatlog-digest/internal/infra/log"
	"chatlog-digest/internal/infra/metrics"
	"chatlog-digest/internal/usecase/schedule"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	redisClient, err := app.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	analysisQueue, closeQueue, err := app.NewQueue(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось инициализировать очередь")
	}
	defer closeQueue()

	chats := schedule.ChatSourceFunc(func() ([]string, error) {
		entries, err := checklist.ParseFile(cfg.Batch.Checklist, time.Now())
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		return names, nil
	})

	planner, err := schedule.NewPlanner(analysisQueue, app.NewCache(redisClient), chats, cfg.Schedule.DailyAt, cfg.TZ, cfg.Schedule.TelegramChat, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: некорректное расписание")
	}

	logger.Info().Str("daily_at", cfg.Schedule.DailyAt).Str("tz", cfg.TZ).Msg("scheduler: запущен")
	planner.Run(ctx, time.Minute)
	logger.Info().Msg("scheduler: остановлен")
}
