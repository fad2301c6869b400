package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"chatlog-digest/internal/adapters/bot"
	"chatlog-digest/internal/adapters/telegram"
	"chatlog-digest/internal/app"
	"chatlog-digest/internal/infra/config"
	httpinfra "chatlog-digest/internal/infra/http"
	applog "chatlog-digest/internal/infra/log"
	"chatlog-digest/internal/infra/metrics"
)

const modeWebhook = "webhook"

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telegram.Token == "" {
		logger.Fatal().Msg("bot: не указан токен Telegram (TG_BOT_TOKEN)")
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: не удалось создать бота")
	}

	redisClient, err := app.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: нет подключения к Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	analysisQueue, closeQueue, err := app.NewQueue(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: не удалось инициализировать очередь")
	}
	defer closeQueue()

	pipeline, err := app.NewPipeline(cfg, app.NewCache(redisClient), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: не удалось собрать каталог чатов")
	}
	if err := pipeline.Directory.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("bot: каталог чатов пока недоступен")
	}

	notifier := telegram.NewNotifier(botAPI, logger.With().Str("component", "telegram").Logger())
	h := bot.NewHandler(notifier, analysisQueue, pipeline.Directory, pipeline.Location, logger.With().Str("component", "bot").Logger())

	if cfg.Telegram.Mode == modeWebhook {
		serveWebhook(ctx, cfg, h, logger)
		return
	}

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := botAPI.GetUpdatesChan(updateCfg)
	logger.Info().Str("bot", botAPI.Self.UserName).Msg("bot: long polling запущен")
	for {
		select {
		case <-ctx.Done():
			botAPI.StopReceivingUpdates()
			logger.Info().Msg("bot: остановка")
			return
		case upd := <-updates:
			h.HandleUpdate(ctx, upd)
		}
	}
}

func serveWebhook(ctx context.Context, cfg config.AppConfig, h *bot.Handler, logger zerolog.Logger) {
	srv := httpinfra.NewServer(logger)
	srv.Router.Post("/bot/webhook", func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			httpinfra.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.HandleUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("bot: HTTP сервер остановлен")
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("bot: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
