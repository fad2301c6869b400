package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"chatlog-digest/internal/domain"
)

const (
	maxFilenameRunes = 80
	fallbackFilename = "chat"
)

// Writer сохраняет отчёты в каталог.
type Writer struct {
	dir string
}

// NewWriter создаёт writer для каталога dir. Каталог создаётся при первой записи.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir возвращает каталог отчётов.
func (w *Writer) Dir() string { return w.dir }

// FileName возвращает имя файла отчёта вида <чат>_<YYYYMMDD>.<ext>.
func FileName(rep domain.Report, ext string) string {
	return SanitizeFilename(rep.Chat) + "_" + rep.Period.Compact() + "." + strings.ToLower(ext)
}

// WriteReport сохраняет отчёт и возвращает путь к файлу.
func (w *Writer) WriteReport(rep domain.Report, ext string, data []byte) (string, error) {
	return w.WriteFile(FileName(rep, ext), data)
}

// WriteFile сохраняет произвольный файл в каталоге отчётов.
func (w *Writer) WriteFile(name string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("создание каталога отчётов: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("запись отчёта %s: %w", name, err)
	}
	return path, nil
}

// SanitizeFilename заменяет символы, недопустимые в именах файлов, на подчёркивание.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r), unicode.IsControl(r):
			b.WriteRune('_')
		case unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._")
	if runes := []rune(out); len(runes) > maxFilenameRunes {
		out = string(runes[:maxFilenameRunes])
	}
	if out == "" {
		return fallbackFilename
	}
	return out
}
