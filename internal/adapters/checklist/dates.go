package checklist

import (
	"strings"
	"time"

	"chatlog-digest/internal/domain"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006年1月2日", "20060102"}

// NormalizeDate разбирает выражение даты относительно now. Понимает
// относительные дни, «本月», конкретные даты и диапазоны через запятую
// или тильду. Если разобрать не удалось, возвращает вчерашний день и false.
func NormalizeDate(expr string, now time.Time) (domain.Period, bool) {
	today := midnight(now)
	yesterday := domain.SingleDay(today.AddDate(0, 0, -1))

	value := strings.ToLower(strings.TrimSpace(expr))
	switch value {
	case "本月", "这个月", "this month":
		return domain.Period{Start: today.AddDate(0, 0, 1-today.Day()), End: today}, true
	}

	if parts := strings.FieldsFunc(value, isRangeSeparator); len(parts) == 2 {
		start, okStart := parseDay(parts[0], today)
		end, okEnd := parseDay(parts[1], today)
		if okStart && okEnd && !end.Before(start) {
			return domain.Period{Start: start, End: end}, true
		}
		return yesterday, false
	}

	if day, ok := parseDay(value, today); ok {
		return domain.SingleDay(day), true
	}
	return yesterday, false
}

func parseDay(value string, today time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	switch value {
	case "今天", "today":
		return today, true
	case "昨天", "yesterday":
		return today.AddDate(0, 0, -1), true
	case "前天":
		return today.AddDate(0, 0, -2), true
	}
	for _, layout := range dateLayouts {
		if day, err := time.ParseInLocation(layout, value, today.Location()); err == nil {
			return day, true
		}
	}
	return time.Time{}, false
}

func isRangeSeparator(r rune) bool {
	return r == ',' || r == '，' || r == '~'
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
