// Package report рендерит отчёты о темах чата в HTML и JSON и сохраняет их на диск.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"chatlog-digest/internal/domain"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

const (
	summarySeparator = " | "
	fullDaySpan      = "全天"
	timestampLayout  = "2006-01-02 15:04"
)

type topicView struct {
	Index        int
	Title        string
	Items        []string
	Keywords     []string
	Span         string
	Participants int
	Messages     int
	Score        string
}

type reportView struct {
	Chat      string
	Period    string
	TimeSpan  string
	Generated string
	Stats     domain.ChatStats
	Topics    []domain.Topic
	Hot       *topicView
	Others    []topicView
}

// HTMLRenderer собирает HTML-страницу отчёта.
type HTMLRenderer struct{}

// NewHTMLRenderer создаёт рендерер.
func NewHTMLRenderer() *HTMLRenderer { return &HTMLRenderer{} }

// Render возвращает HTML-страницу: первая тема выводится как горячая, остальные карточками.
func (r *HTMLRenderer) Render(rep domain.Report) ([]byte, error) {
	view := reportView{
		Chat:      rep.Chat,
		Period:    rep.Period.String(),
		TimeSpan:  timeSpan(rep),
		Generated: rep.GeneratedAt.Format(timestampLayout),
		Stats:     rep.Stats,
		Topics:    rep.Topics,
	}
	for i, topic := range rep.Topics {
		tv := newTopicView(i, topic)
		if i == 0 {
			view.Hot = &tv
			continue
		}
		view.Others = append(view.Others, tv)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "report.html.tmpl", view); err != nil {
		return nil, fmt.Errorf("рендер html-отчёта: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderIndex возвращает страницу-оглавление пакетного запуска.
func (r *HTMLRenderer) RenderIndex(summary domain.BatchSummary, generated time.Time) ([]byte, error) {
	view := struct {
		Summary   domain.BatchSummary
		Generated string
	}{Summary: summary, Generated: generated.Format(timestampLayout)}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "index.html.tmpl", view); err != nil {
		return nil, fmt.Errorf("рендер оглавления: %w", err)
	}
	return buf.Bytes(), nil
}

func newTopicView(i int, topic domain.Topic) topicView {
	return topicView{
		Index:        i,
		Title:        topic.Title,
		Items:        summaryItems(topic.Summary),
		Keywords:     topic.Keywords,
		Span:         topic.StartTime.Format("15:04") + "-" + topic.EndTime.Format("15:04"),
		Participants: topic.ParticipantCount,
		Messages:     topic.MessageCount,
		Score:        fmt.Sprintf("%.1f", topic.Score),
	}
}

func summaryItems(summary string) []string {
	var items []string
	for _, part := range strings.Split(summary, summarySeparator) {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func timeSpan(rep domain.Report) string {
	start, end := rep.Stats.Start, rep.Stats.End
	if start.IsZero() || end.IsZero() {
		for _, topic := range rep.Topics {
			if start.IsZero() || topic.StartTime.Before(start) {
				start = topic.StartTime
			}
			if end.IsZero() || topic.EndTime.After(end) {
				end = topic.EndTime
			}
		}
	}
	if start.IsZero() || end.IsZero() {
		return fullDaySpan
	}
	if rep.Period.OneDay() {
		return start.Format("15:04") + "-" + end.Format("15:04")
	}
	return start.Format(timestampLayout) + " ~ " + end.Format(timestampLayout)
}
