package domain

// BatchItem — итог обработки одного чата в пакетном запуске.
type BatchItem struct {
	Chat     string `json:"chat"`
	Period   string `json:"period"`
	File     string `json:"file,omitempty"`
	Topics   int    `json:"topics"`
	Messages int    `json:"messages"`
	// Skipped содержит причину пропуска; пусто для успешно построенного отчёта.
	Skipped string `json:"skipped,omitempty"`
}

// OK сообщает, что отчёт построен.
func (b BatchItem) OK() bool { return b.Skipped == "" }

// BatchSummary — итог пакетного запуска.
type BatchSummary struct {
	Items     []BatchItem `json:"items"`
	Generated int         `json:"generated"`
	Skipped   int         `json:"skipped"`
	OutputDir string      `json:"output_dir"`
}
