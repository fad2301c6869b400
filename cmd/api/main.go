package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"chatlog-digest/internal/adapters/api"
	"chatlog-digest/internal/app"
	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/infra/config"
	httpinfra "chatlog-digest/internal/infra/http"
	applog "chatlog-digest/internal/infra/log"
	"chatlog-digest/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := app.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	pipeline, err := app.NewPipeline(cfg, app.NewCache(redisClient), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось собрать конвейер анализа")
	}
	if err := pipeline.Directory.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("api: каталог чатов пока недоступен")
	}

	var jobs domain.AnalysisQueue
	q, closeQueue, err := app.NewQueue(cfg, redisClient)
	switch {
	case errors.Is(err, app.ErrNoQueue):
		logger.Warn().Msg("api: очередь не настроена, POST /api/v1/jobs недоступен")
	case err != nil:
		logger.Fatal().Err(err).Msg("api: не удалось инициализировать очередь")
	default:
		jobs = q
		defer closeQueue()
	}

	srv := httpinfra.NewServer(logger)
	handlers := api.NewHandlers(pipeline.Analysis, jobs, pipeline.Directory, pipeline.Client, pipeline.Location, logger.With().Str("component", "api").Logger())
	handlers.Register(srv.Router, cfg.APIToken)

	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
