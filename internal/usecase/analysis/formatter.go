package analysis

import (
	"fmt"
	"html"
	"strings"

	"chatlog-digest/internal/domain"
)

const (
	summarySeparator = " | "
	emptyTopicsText  = "暂无可展示的话题"
)

type markup struct {
	bold   func(string) string
	escape func(string) string
}

var (
	telegramMarkup = markup{
		bold:   func(s string) string { return "<b>" + html.EscapeString(s) + "</b>" },
		escape: html.EscapeString,
	}
	plainMarkup = markup{
		bold:   func(s string) string { return s },
		escape: func(s string) string { return s },
	}
)

// FormatDigest формирует дайджест отчёта в HTML-разметке Telegram.
func FormatDigest(rep domain.Report) string {
	return format(rep, telegramMarkup)
}

// FormatText формирует дайджест отчёта простым текстом.
func FormatText(rep domain.Report) string {
	return format(rep, plainMarkup)
}

func format(rep domain.Report, m markup) string {
	var sections []string

	header := "🧭 " + m.bold("群聊精华 · "+rep.Chat) + "\n" +
		m.escape(fmt.Sprintf("%s · %d 条消息 · %d 人参与", rep.Period.String(), rep.Stats.TotalMessages, rep.Stats.TotalParticipants))
	sections = append(sections, header)

	hot, ok := rep.HotTopic()
	if !ok {
		sections = append(sections, m.escape(emptyTopicsText))
		return strings.Join(sections, "\n\n")
	}
	sections = append(sections, "🔥 "+m.bold("今日热点话题")+"\n"+topicBlock(m.bold(hot.Title), hot, m))

	if len(rep.Topics) > 1 {
		var b strings.Builder
		b.WriteString("🗂 " + m.bold("讨论精华"))
		for i, topic := range rep.Topics[1:] {
			title := m.bold(fmt.Sprintf("%d. %s", i+1, topic.Title))
			b.WriteString("\n\n" + topicBlock(title, topic, m))
		}
		sections = append(sections, b.String())
	}
	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

func topicBlock(title string, topic domain.Topic, m markup) string {
	lines := []string{
		title + " " + m.escape(fmt.Sprintf("(%s-%s · %d 人 · %d 条)",
			topic.StartTime.Format("15:04"), topic.EndTime.Format("15:04"), topic.ParticipantCount, topic.MessageCount)),
	}
	if len(topic.Keywords) > 0 {
		lines = append(lines, "🏷 "+m.escape(strings.Join(topic.Keywords, " · ")))
	}
	for _, item := range strings.Split(topic.Summary, summarySeparator) {
		if item = strings.TrimSpace(item); item != "" {
			lines = append(lines, "• "+m.escape(item))
		}
	}
	return strings.Join(lines, "\n")
}
