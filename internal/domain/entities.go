package domain

import (
	"fmt"
	"time"
)

// UnknownSender подставляется, когда источник не сообщил отправителя.
const UnknownSender = "Unknown"

// Message — одно сообщение группового чата.
type Message struct {
	// Timestamp равен нулю, если время не удалось разобрать.
	Timestamp  time.Time `json:"timestamp"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"sender_name,omitempty"`
	Content    string    `json:"content"`
}

// HasTime сообщает, удалось ли разобрать время сообщения.
func (m Message) HasTime() bool {
	return !m.Timestamp.IsZero()
}

// Author возвращает отображаемое имя отправителя.
func (m Message) Author() string {
	if m.SenderName != "" {
		return m.SenderName
	}
	if m.Sender != "" {
		return m.Sender
	}
	return UnknownSender
}

// SessionGroup — непрерывная серия сообщений без пауз длиннее окна сессии.
type SessionGroup struct {
	Messages []Message
}

// Len возвращает число сообщений в группе.
func (g SessionGroup) Len() int { return len(g.Messages) }

// Start возвращает время первого сообщения.
func (g SessionGroup) Start() time.Time {
	if len(g.Messages) == 0 {
		return time.Time{}
	}
	return g.Messages[0].Timestamp
}

// End возвращает время последнего сообщения.
func (g SessionGroup) End() time.Time {
	if len(g.Messages) == 0 {
		return time.Time{}
	}
	return g.Messages[len(g.Messages)-1].Timestamp
}

// Topic — оценённая и описанная сессия обсуждения.
type Topic struct {
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	Keywords         []string  `json:"keywords"`
	Score            float64   `json:"score"`
	MessageCount     int       `json:"message_count"`
	ParticipantCount int       `json:"participant_count"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
}

// Period — интервал календарных дат включительно.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

const dateLayout = "2006-01-02"

// SingleDay возвращает период из одного дня.
func SingleDay(day time.Time) Period {
	return Period{Start: day, End: day}
}

// Param форматирует период для параметра time сервиса истории чатов.
func (p Period) Param() string {
	return fmt.Sprintf("%s~%s", p.Start.Format(dateLayout), p.End.Format(dateLayout))
}

// OneDay сообщает, что период состоит из одного дня.
func (p Period) OneDay() bool {
	return p.Start.Format(dateLayout) == p.End.Format(dateLayout)
}

// String форматирует период для отчётов.
func (p Period) String() string {
	if p.OneDay() {
		return p.Start.Format(dateLayout)
	}
	return p.Start.Format(dateLayout) + "," + p.End.Format(dateLayout)
}

// Compact возвращает дату начала в виде YYYYMMDD для имён файлов.
func (p Period) Compact() string {
	return p.Start.Format("20060102")
}

// ChatRoom — запись каталога групповых чатов.
type ChatRoom struct {
	Name      string `json:"name"`
	NickName  string `json:"nick_name"`
	Remark    string `json:"remark"`
	Owner     string `json:"owner,omitempty"`
	UserCount int    `json:"user_count,omitempty"`
}

// DisplayName возвращает человекочитаемое имя чата.
func (c ChatRoom) DisplayName() string {
	switch {
	case c.Remark != "":
		return c.Remark
	case c.NickName != "":
		return c.NickName
	default:
		return c.Name
	}
}

// SenderCount — число сообщений одного участника.
type SenderCount struct {
	Sender string `json:"sender"`
	Count  int    `json:"count"`
}

// ChatStats — сводная статистика по чату за период.
type ChatStats struct {
	TotalMessages     int           `json:"total_messages"`
	Dropped           int           `json:"dropped"`
	TotalParticipants int           `json:"total_participants"`
	MostActive        []SenderCount `json:"most_active"`
	AverageLength     float64       `json:"average_length"`
	PeakHour          int           `json:"peak_hour"`
	Start             time.Time     `json:"start"`
	End               time.Time     `json:"end"`
	DurationMinutes   int           `json:"duration_minutes"`
}

// Report — результат анализа одного чата.
type Report struct {
	Chat        string    `json:"chat"`
	ChatID      string    `json:"chat_id"`
	Period      Period    `json:"period"`
	Topics      []Topic   `json:"topics"`
	Stats       ChatStats `json:"stats"`
	GeneratedAt time.Time `json:"generated_at"`
}

// HotTopic возвращает тему с наибольшей оценкой.
func (r Report) HotTopic() (Topic, bool) {
	if len(r.Topics) == 0 {
		return Topic{}, false
	}
	return r.Topics[0], true
}
