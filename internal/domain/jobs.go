package domain

import (
	"context"
	"time"
)

// AnalysisJobCause описывает источник запроса на анализ.
type AnalysisJobCause string

const (
	// AnalysisCauseManual — анализ запрошен командой бота.
	AnalysisCauseManual AnalysisJobCause = "manual"
	// AnalysisCauseScheduled — анализ запланирован по расписанию.
	AnalysisCauseScheduled AnalysisJobCause = "scheduled"
	// AnalysisCauseAPI — анализ поставлен через HTTP API.
	AnalysisCauseAPI AnalysisJobCause = "api"
)

// AnalysisJob содержит информацию о задаче анализа чата.
type AnalysisJob struct {
	ID             string           `json:"job_id,omitempty"`
	Chat           string           `json:"chat"`
	Period         Period           `json:"period"`
	TargetCount    int              `json:"target_count,omitempty"`
	TelegramChatID int64            `json:"telegram_chat_id,omitempty"`
	Attempt        int              `json:"attempt,omitempty"`
	RequestedAt    time.Time        `json:"requested_at"`
	Cause          AnalysisJobCause `json:"cause"`
}

// AnalysisQueue описывает очередь задач анализа.
type AnalysisQueue interface {
	Enqueue(ctx context.Context, job AnalysisJob) error
	Receive(ctx context.Context) (AnalysisJob, AckFunc, error)
}

// AckFunc подтверждает успешную обработку или запрашивает повтор доставки задачи.
type AckFunc func(success bool) error
