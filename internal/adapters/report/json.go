package report

import (
	"encoding/json"
	"fmt"

	"chatlog-digest/internal/domain"
)

// JSON сериализует отчёт с отступами.
func JSON(rep domain.Report) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("сериализация отчёта: %w", err)
	}
	return data, nil
}

// JSONRenderer рендерит отчёт в JSON.
type JSONRenderer struct{}

// Render возвращает отчёт в JSON.
func (JSONRenderer) Render(rep domain.Report) ([]byte, error) { return JSON(rep) }
