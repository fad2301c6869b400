package domain

import (
	"testing"
	"time"
)

func TestPeriodFormatting(t *testing.T) {
	day := time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC)
	single := SingleDay(day)
	if !single.OneDay() {
		t.Fatalf("ожидали однодневный период")
	}
	if got := single.String(); got != "2025-12-11" {
		t.Fatalf("неожиданная строка периода: %s", got)
	}
	if got := single.Param(); got != "2025-12-11~2025-12-11" {
		t.Fatalf("неожиданный параметр: %s", got)
	}
	if got := single.Compact(); got != "20251211" {
		t.Fatalf("неожиданная короткая дата: %s", got)
	}

	month := Period{Start: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), End: day}
	if month.OneDay() {
		t.Fatalf("диапазон не должен считаться одним днём")
	}
	if got := month.String(); got != "2025-12-01,2025-12-11" {
		t.Fatalf("неожиданная строка диапазона: %s", got)
	}
	if got := month.Param(); got != "2025-12-01~2025-12-11" {
		t.Fatalf("неожиданный параметр диапазона: %s", got)
	}
}

func TestMessageAuthor(t *testing.T) {
	cases := []struct {
		msg  Message
		want string
	}{
		{Message{Sender: "wxid_1", SenderName: "张三"}, "张三"},
		{Message{Sender: "wxid_1"}, "wxid_1"},
		{Message{}, UnknownSender},
	}
	for _, c := range cases {
		if got := c.msg.Author(); got != c.want {
			t.Fatalf("ожидали %q, получили %q", c.want, got)
		}
	}
	if (Message{}).HasTime() {
		t.Fatalf("нулевое время не должно считаться разобранным")
	}
}

func TestChatRoomDisplayName(t *testing.T) {
	room := ChatRoom{Name: "123@chatroom", NickName: "技术群", Remark: "技术讨论组"}
	if got := room.DisplayName(); got != "技术讨论组" {
		t.Fatalf("ожидали примечание, получили %s", got)
	}
	room.Remark = ""
	if got := room.DisplayName(); got != "技术群" {
		t.Fatalf("ожидали ник, получили %s", got)
	}
	room.NickName = ""
	if got := room.DisplayName(); got != "123@chatroom" {
		t.Fatalf("ожидали идентификатор, получили %s", got)
	}
}

func TestReportHotTopic(t *testing.T) {
	if _, ok := (Report{}).HotTopic(); ok {
		t.Fatalf("у пустого отчёта не должно быть горячей темы")
	}
	rep := Report{Topics: []Topic{{Title: "部署", Score: 8}, {Title: "周报", Score: 3}}}
	hot, ok := rep.HotTopic()
	if !ok || hot.Title != "部署" {
		t.Fatalf("ожидали первую тему, получили %+v", hot)
	}

	group := SessionGroup{}
	if !group.Start().IsZero() || !group.End().IsZero() || group.Len() != 0 {
		t.Fatalf("пустая группа должна иметь нулевые границы")
	}
}

func TestBatchItemOK(t *testing.T) {
	if !(BatchItem{Chat: "a"}).OK() {
		t.Fatalf("элемент без причины пропуска должен быть успешным")
	}
	if (BatchItem{Chat: "a", Skipped: "没有消息"}).OK() {
		t.Fatalf("пропущенный элемент не должен быть успешным")
	}
}
