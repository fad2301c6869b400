// Package bot обрабатывает команды Telegram-бота и ставит задачи анализа в очередь.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatlog-digest/internal/adapters/checklist"
	"chatlog-digest/internal/domain"
)

const maxListedRooms = 20

// Replier отправляет ответы пользователю.
type Replier interface {
	SendPlain(ctx context.Context, chatID int64, text string) error
}

// RoomSearcher ищет групповые чаты по ключевому слову.
type RoomSearcher interface {
	Search(keyword string) []domain.ChatRoom
}

// Handler обслуживает апдейты бота.
type Handler struct {
	replier Replier
	jobs    domain.AnalysisQueue
	rooms   RoomSearcher
	loc     *time.Location
	now     func() time.Time
	log     zerolog.Logger
}

// NewHandler создаёт обработчик. rooms может быть nil, тогда /chats недоступна.
func NewHandler(replier Replier, jobs domain.AnalysisQueue, rooms RoomSearcher, loc *time.Location, log zerolog.Logger) *Handler {
	return &Handler{replier: replier, jobs: jobs, rooms: rooms, loc: loc, now: time.Now, log: log}
}

// HandleUpdate обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	h.handleMessage(ctx, upd.Message.Chat.ID, upd.Message.Text)
}

func (h *Handler) handleMessage(ctx context.Context, chatID int64, text string) {
	command, payload := splitCommand(text)
	switch command {
	case "":
		return
	case "/start", "/help":
		h.reply(ctx, chatID, helpMessage())
	case "/topics":
		h.handleTopics(ctx, chatID, payload)
	case "/chats":
		h.handleChats(ctx, chatID, payload)
	default:
		h.reply(ctx, chatID, "未知命令，请使用 /help 查看说明")
	}
}

func (h *Handler) handleTopics(ctx context.Context, chatID int64, payload string) {
	if payload == "" {
		h.reply(ctx, chatID, "请指定群聊名称，例如：/topics 技术讨论组 昨天")
		return
	}
	now := h.now().In(h.loc)
	chat, period := parseTopicsArgs(payload, now)

	job := domain.AnalysisJob{
		ID:             uuid.NewString(),
		Chat:           chat,
		Period:         period,
		TelegramChatID: chatID,
		RequestedAt:    now.UTC(),
		Cause:          domain.AnalysisCauseManual,
	}
	if err := h.jobs.Enqueue(ctx, job); err != nil {
		h.log.Error().Err(err).Str("chat", chat).Int64("tg_chat", chatID).Msg("bot: не удалось поставить задачу анализа")
		h.reply(ctx, chatID, "暂时无法处理请求，请稍后再试")
		return
	}
	h.log.Info().Str("job_id", job.ID).Str("chat", chat).Str("period", period.String()).Msg("bot: задача анализа поставлена")
	h.reply(ctx, chatID, fmt.Sprintf("正在整理「%s」%s 的群聊精华，完成后会发送到这里", chat, period.String()))
}

func (h *Handler) handleChats(ctx context.Context, chatID int64, keyword string) {
	if h.rooms == nil {
		h.reply(ctx, chatID, "群聊列表暂不可用")
		return
	}
	rooms := h.rooms.Search(keyword)
	if len(rooms) == 0 {
		h.reply(ctx, chatID, "没有找到匹配的群聊")
		return
	}
	lines := []string{fmt.Sprintf("找到 %d 个群聊：", len(rooms))}
	for i, room := range rooms {
		if i == maxListedRooms {
			lines = append(lines, fmt.Sprintf("… 还有 %d 个", len(rooms)-maxListedRooms))
			break
		}
		lines = append(lines, "• "+room.DisplayName())
	}
	h.reply(ctx, chatID, strings.Join(lines, "\n"))
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.replier.SendPlain(ctx, chatID, text); err != nil {
		h.log.Error().Err(err).Int64("tg_chat", chatID).Msg("bot: не удалось отправить ответ")
	}
}

// splitCommand отделяет команду от аргументов и убирает суффикс @botname.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	command, payload, _ := strings.Cut(text, " ")
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	return strings.ToLower(command), strings.TrimSpace(payload)
}

// parseTopicsArgs берёт последнее слово как дату, если оно распознаётся,
// иначе весь текст считается названием чата, а период — вчерашним днём.
func parseTopicsArgs(payload string, now time.Time) (string, domain.Period) {
	fields := strings.Fields(payload)
	if len(fields) > 1 {
		if period, ok := checklist.NormalizeDate(fields[len(fields)-1], now); ok {
			return strings.Join(fields[:len(fields)-1], " "), period
		}
	}
	period, _ := checklist.NormalizeDate("昨天", now)
	return strings.Join(fields, " "), period
}

func helpMessage() string {
	lines := []string{
		"📖 群聊精华机器人",
		"",
		"• /topics <群聊名称> [日期] — 整理群聊话题，日期支持 今天、昨天、前天、本月、2025-12-01 或 2025-12-01,2025-12-05，默认昨天",
		"• /chats [关键词] — 搜索可用的群聊",
		"• /help — 显示本说明",
	}
	return strings.Join(lines, "\n")
}
