// Package checklist разбирает markdown-список чатов для пакетного анализа.
package checklist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"chatlog-digest/internal/domain"
)

// Template записывается, если файла со списком ещё нет.
const Template = `# 群聊清单

请按以下格式列出要分析的群聊:

- 群聊名称: 技术讨论组
  日期: 昨天
  格式: HTML

- 群聊名称: 产品团队
  日期: 2025-12-11
  格式: HTML

- 群聊名称: 设计组
  日期: 本月
  格式: JSON

## 说明
- 群聊名称: 必填,与聊天记录服务中的群聊名称或备注一致,支持部分匹配
- 日期: 支持"今天"、"昨天"、"前天"、"本月"、"YYYY-MM-DD"或"YYYY-MM-DD,YYYY-MM-DD",默认为"昨天"
- 格式: HTML 或 JSON,默认为 HTML
`

const (
	defaultDate   = "昨天"
	defaultFormat = "HTML"
)

// Entry — один чат из списка.
type Entry struct {
	Name        string
	DateExpr    string
	Period      domain.Period
	Format      string
	Description string
	// DateFallback выставляется, если дату не удалось разобрать и взят вчерашний день.
	DateFallback bool
}

var (
	nameKeys        = map[string]struct{}{"群聊名称": {}, "群聊": {}, "名称": {}, "name": {}, "chat": {}}
	dateKeys        = map[string]struct{}{"日期": {}, "date": {}}
	formatKeys      = map[string]struct{}{"格式": {}, "format": {}}
	descriptionKeys = map[string]struct{}{"描述": {}, "说明": {}, "description": {}}
)

// ParseFile читает список из файла.
func ParseFile(path string, now time.Time) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("открытие списка чатов: %w", err)
	}
	defer f.Close()
	return Parse(f, now)
}

// Parse разбирает список. Разделы с заголовком «说明» или «Notes» пропускаются.
func Parse(r io.Reader, now time.Time) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries  []Entry
		current  *Entry
		skipping bool
	)
	flush := func() {
		if current != nil && current.Name != "" {
			entries = append(entries, finalize(*current, now))
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			heading := strings.ToLower(strings.TrimSpace(strings.TrimLeft(line, "#")))
			flush()
			skipping = strings.Contains(heading, "说明") || strings.Contains(heading, "notes")
			continue
		}
		if skipping {
			continue
		}
		item := strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*")
		if item {
			line = strings.TrimSpace(line[1:])
		}
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		switch {
		case item && has(nameKeys, key):
			flush()
			current = &Entry{Name: value}
		case current == nil:
		case has(dateKeys, key):
			current.DateExpr = value
		case has(formatKeys, key):
			current.Format = value
		case has(descriptionKeys, key):
			current.Description = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("чтение списка чатов: %w", err)
	}
	flush()
	return entries, nil
}

// WriteTemplate создаёт файл-шаблон, не перезаписывая существующий.
func WriteTemplate(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("создание шаблона списка: %w", err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, Template); err != nil {
		return fmt.Errorf("запись шаблона списка: %w", err)
	}
	return nil
}

func finalize(e Entry, now time.Time) Entry {
	if e.DateExpr == "" {
		e.DateExpr = defaultDate
	}
	e.Format = strings.ToUpper(strings.TrimSpace(e.Format))
	if e.Format == "" {
		e.Format = defaultFormat
	}
	period, ok := NormalizeDate(e.DateExpr, now)
	e.Period = period
	e.DateFallback = !ok
	return e
}

func splitKeyValue(line string) (string, string, bool) {
	idx := strings.IndexAny(line, ":：")
	if idx <= 0 {
		return "", "", false
	}
	key := strings.ToLower(strings.TrimSpace(line[:idx]))
	rest := line[idx:]
	if strings.HasPrefix(rest, "：") {
		rest = strings.TrimPrefix(rest, "：")
	} else {
		rest = rest[1:]
	}
	value := strings.TrimSpace(rest)
	if value == "" {
		return "", "", false
	}
	return key, value, true
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
