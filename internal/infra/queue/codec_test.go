package queue

import (
	"errors"
	"testing"
	"time"

	"chatlog-digest/internal/domain"
)

func TestJobCodecRoundTrip(t *testing.T) {
	day := time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC)
	job := domain.AnalysisJob{
		ID:             "job-1",
		Chat:           "读书会",
		Period:         domain.SingleDay(day),
		TelegramChatID: 42,
		Cause:          domain.AnalysisCauseManual,
	}
	payload, err := encodeJob(job)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	decoded, err := decodeJob(payload)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if decoded.Chat != job.Chat || decoded.Period.Param() != "2025-12-11~2025-12-11" || decoded.TelegramChatID != 42 {
		t.Fatalf("задача искажена при кодировании: %+v", decoded)
	}
}

func TestEncodeJobRequiresID(t *testing.T) {
	if _, err := encodeJob(domain.AnalysisJob{Chat: "x"}); !errors.Is(err, ErrEmptyJobID) {
		t.Fatalf("ожидали ErrEmptyJobID, получили %v", err)
	}
}

func TestDecodeJobRejectsGarbage(t *testing.T) {
	if _, err := decodeJob([]byte("not json")); err == nil {
		t.Fatal("ожидали ошибку декодирования")
	}
}
