package chatlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chatlog-digest/internal/domain"
)

// Record — сырая запись сообщения в том виде, в каком её вернул сервис.
type Record map[string]any

var (
	timeKeys       = []string{"timestamp", "time", "created_at", "date"}
	senderKeys     = []string{"sender", "from", "user", "author"}
	senderNameKeys = []string{"senderName", "sender_name", "nickName", "nickname"}
	contentKeys    = []string{"content", "text", "message", "body"}
	envelopeKeys   = []string{"data", "messages", "records", "chatlog", "items"}
)

var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
}

// ErrUnknownPayload возвращается, если ответ не похож на список сообщений.
var ErrUnknownPayload = errors.New("неизвестный формат ответа")

// Normalize приводит сырые записи к доменным сообщениям. Время без зоны
// трактуется в loc; неразобранное время остаётся нулевым.
func Normalize(records []Record, loc *time.Location) []domain.Message {
	if loc == nil {
		loc = time.Local
	}
	out := make([]domain.Message, 0, len(records))
	for _, rec := range records {
		sender := firstString(rec, senderKeys)
		name := firstString(rec, senderNameKeys)
		if sender == "" {
			sender = name
		}
		if sender == "" {
			sender = domain.UnknownSender
		}
		out = append(out, domain.Message{
			Timestamp:  parseTime(firstValue(rec, timeKeys), loc),
			Sender:     sender,
			SenderName: name,
			Content:    firstString(rec, contentKeys),
		})
	}
	return out
}

func decodeRecords(raw []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	dec := func(data []byte, out any) error {
		d := json.NewDecoder(bytes.NewReader(data))
		d.UseNumber()
		return d.Decode(out)
	}
	switch trimmed[0] {
	case '[':
		var records []Record
		if err := dec(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := dec(trimmed, &envelope); err != nil {
			return nil, err
		}
		for _, key := range envelopeKeys {
			inner, ok := envelope[key]
			if !ok {
				continue
			}
			inner = bytes.TrimSpace(inner)
			if len(inner) == 0 || inner[0] != '[' {
				continue
			}
			var records []Record
			if err := dec(inner, &records); err != nil {
				return nil, fmt.Errorf("поле %s: %w", key, err)
			}
			return records, nil
		}
	}
	return nil, ErrUnknownPayload
}

func firstValue(rec Record, keys []string) any {
	for _, key := range keys {
		if v, ok := rec[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(rec Record, keys []string) string {
	for _, key := range keys {
		switch v := rec[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func parseTime(v any, loc *time.Location) time.Time {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return fromUnix(n)
		}
		if f, err := t.Float64(); err == nil {
			return fromUnix(int64(f))
		}
	case float64:
		return fromUnix(int64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromUnix(n)
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts
		}
		for _, layout := range zonelessLayouts {
			if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
				return ts
			}
		}
	}
	return time.Time{}
}

func fromUnix(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > 1e12 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}
