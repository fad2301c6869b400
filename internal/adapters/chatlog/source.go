package chatlog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"chatlog-digest/internal/domain"
)

// Source реализует domain.MessageSource поверх клиента и каталога чатов.
type Source struct {
	client *Client
	dir    *Directory
	loc    *time.Location
	log    zerolog.Logger
}

// NewSource создаёт источник сообщений.
func NewSource(client *Client, dir *Directory, loc *time.Location, log zerolog.Logger) *Source {
	return &Source{client: client, dir: dir, loc: loc, log: log}
}

// FetchMessages находит идентификатор чата и выгружает его сообщения за период.
func (s *Source) FetchMessages(ctx context.Context, chat string, period domain.Period) (string, []domain.Message, error) {
	chatID := chat
	if s.dir != nil {
		if err := s.dir.Load(ctx); err != nil {
			s.log.Warn().Err(err).Str("chat", chat).Msg("chatlog: каталог чатов недоступен, используем имя как есть")
		}
		id, matched := s.dir.Resolve(chat)
		if !matched {
			s.log.Debug().Str("chat", chat).Msg("chatlog: чат не найден в каталоге")
		}
		chatID = id
	}
	records, err := s.client.Records(ctx, chatID, period)
	if err != nil {
		return chatID, nil, fmt.Errorf("выгрузка сообщений %s: %w", chat, err)
	}
	return chatID, Normalize(records, s.loc), nil
}

var _ domain.MessageSource = (*Source)(nil)
