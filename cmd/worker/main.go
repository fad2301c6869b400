package main

import (
	"context"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"chatlog-digest/internal/adapters/report"
	"chatlog-digest/internal/adapters/telegram"
	"chatlog-digest/internal/app"
	"chatlog-digest/internal/infra/config"
	applog "chatlog-digest/internal/infra/log"
	"chatlog-digest/internal/infra/metrics"
	"chatlog-digest/internal/usecase/jobs"
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
		logger.Fatal().Err(err).Msg("worker: нет подключения к Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := app.NewCache(redisClient)

	analysisQueue, closeQueue, err := app.NewQueue(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: не удалось инициализировать очередь")
	}
	defer closeQueue()

	pipeline, err := app.NewPipeline(cfg, cache, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: не удалось собрать конвейер анализа")
	}

	var messenger jobs.Messenger
	if cfg.Telegram.Token != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: не удалось создать бота")
		}
		messenger = telegram.NewNotifier(botAPI, logger.With().Str("component", "telegram").Logger())
	} else {
		logger.Warn().Msg("worker: TG_BOT_TOKEN не задан, дайджесты не будут отправляться")
	}

	worker := jobs.NewWorker(
		analysisQueue,
		cache,
		pipeline.Analysis,
		report.NewHTMLRenderer(),
		report.NewWriter(cfg.Batch.ReportDir),
		messenger,
		logger,
	)

	logger.Info().Msg("worker: запуск обработки очереди")
	worker.Run(ctx)
	logger.Info().Msg("worker: остановлен")
}
