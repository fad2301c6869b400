package analysis

import (
	"strings"
	"testing"
	"time"

	"chatlog-digest/internal/domain"
)

func digestReport() domain.Report {
	return domain.Report{
		Chat:   "技术<讨论>组",
		Period: domain.SingleDay(time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC)),
		Topics: []domain.Topic{
			{
				Title:            "数据库迁移方案",
				Summary:          "先迁移读库 | 周末停机切换",
				Keywords:         []string{"迁移", "数据库"},
				MessageCount:     12,
				ParticipantCount: 4,
				StartTime:        base.Add(5 * time.Minute),
				EndTime:          base.Add(50 * time.Minute),
			},
			{
				Title:            "午饭 & 面馆",
				Summary:          "新开的面馆",
				MessageCount:     3,
				ParticipantCount: 2,
				StartTime:        base.Add(3 * time.Hour),
				EndTime:          base.Add(3*time.Hour + 10*time.Minute),
			},
		},
		Stats: domain.ChatStats{TotalMessages: 15, TotalParticipants: 5},
	}
}

func TestFormatDigestBuildsTopicSections(t *testing.T) {
	formatted := FormatDigest(digestReport())

	mustContain(t, formatted, "🧭 <b>群聊精华 · 技术&lt;讨论&gt;组</b>")
	mustContain(t, formatted, "2025-12-11 · 15 条消息 · 5 人参与")
	mustContain(t, formatted, "🔥 <b>今日热点话题</b>")
	mustContain(t, formatted, "<b>数据库迁移方案</b> (09:05-09:50 · 4 人 · 12 条)")
	mustContain(t, formatted, "🏷 迁移 · 数据库")
	mustContain(t, formatted, "• 先迁移读库\n• 周末停机切换")
	mustContain(t, formatted, "🗂 <b>讨论精华</b>")
	mustContain(t, formatted, "<b>1. 午饭 &amp; 面馆</b>")
}

func TestFormatTextHasNoMarkup(t *testing.T) {
	formatted := FormatText(digestReport())
	mustContain(t, formatted, "群聊精华 · 技术<讨论>组")
	mustContain(t, formatted, "1. 午饭 & 面馆")
	if strings.Contains(formatted, "<b>") {
		t.Fatalf("в простом тексте не должно быть разметки: %q", formatted)
	}
}

func TestFormatDigestWithoutTopics(t *testing.T) {
	rep := digestReport()
	rep.Topics = nil
	formatted := FormatDigest(rep)
	mustContain(t, formatted, emptyTopicsText)
	if strings.Contains(formatted, "今日热点话题") {
		t.Fatalf("не ожидали горячую тему в %q", formatted)
	}
}

func mustContain(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("ожидали найти подстроку %q в %q", substr, s)
	}
}
