package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"chatlog-digest/internal/domain"
)

// ErrEmptyJobID возвращается при попытке поставить задачу без идентификатора.
var ErrEmptyJobID = errors.New("задача без идентификатора")

func encodeJob(job domain.AnalysisJob) ([]byte, error) {
	if job.ID == "" {
		return nil, ErrEmptyJobID
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	return payload, nil
}

func decodeJob(payload []byte) (domain.AnalysisJob, error) {
	var job domain.AnalysisJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
