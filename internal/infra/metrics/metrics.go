package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	AnalysisSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatlog_digest_analysis_seconds",
		Help:    "Время анализа одного чата",
		Buckets: prometheus.DefBuckets,
	})
	MessagesAnalyzed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatlog_digest_messages_analyzed_total",
		Help: "Сообщения, прошедшие через сегментацию",
	})
	MessagesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatlog_digest_messages_dropped_total",
		Help: "Сообщения, отброшенные из-за неразобранного времени",
	})
	TopicsProduced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatlog_digest_topics_total",
		Help: "Темы, попавшие в отчёты",
	})
	ReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatlog_digest_reports_total",
		Help: "Отчёты по результату построения",
	}, []string{"status"})
	JobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatlog_digest_jobs_total",
		Help: "Задачи анализа по исходу обработки",
	}, []string{"outcome"})
	TelegramSendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telegram_send_errors_total",
		Help: "Ошибки отправки сообщений ботом",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60, 120},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		AnalysisSeconds,
		MessagesAnalyzed,
		MessagesDropped,
		TopicsProduced,
		ReportsTotal,
		JobsTotal,
		TelegramSendErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveAnalysis записывает длительность и объём одного анализа.
func ObserveAnalysis(start time.Time, analyzed, dropped, topics int) {
	AnalysisSeconds.Observe(time.Since(start).Seconds())
	MessagesAnalyzed.Add(float64(analyzed))
	MessagesDropped.Add(float64(dropped))
	TopicsProduced.Add(float64(topics))
}

// IncReport учитывает построенный или пропущенный отчёт.
func IncReport(status string) {
	ReportsTotal.WithLabelValues(status).Inc()
}

// IncJob учитывает исход обработки задачи.
func IncJob(outcome string) {
	JobsTotal.WithLabelValues(outcome).Inc()
}
