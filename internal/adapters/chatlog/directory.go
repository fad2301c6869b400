package chatlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"chatlog-digest/internal/domain"
)

const chatRoomsCacheKey = "chatlog:chatrooms"

// Directory сопоставляет отображаемые имена чатов с их идентификаторами.
// Каталог загружается один раз и затем только читается.
type Directory struct {
	lister   domain.ChatRoomLister
	cache    domain.Cache
	ttl      time.Duration
	mappings []domain.ChatRoom
	log      zerolog.Logger

	mu     sync.RWMutex
	rooms  []domain.ChatRoom
	loaded bool
}

// NewDirectory создаёт каталог. cache может быть nil.
func NewDirectory(lister domain.ChatRoomLister, cache domain.Cache, ttl time.Duration, mappings map[string]string, log zerolog.Logger) *Directory {
	names := make([]string, 0, len(mappings))
	for name := range mappings {
		names = append(names, name)
	}
	sort.Strings(names)
	custom := make([]domain.ChatRoom, 0, len(names))
	for _, name := range names {
		custom = append(custom, domain.ChatRoom{Name: mappings[name], Remark: name})
	}
	return &Directory{lister: lister, cache: cache, ttl: ttl, mappings: custom, log: log}
}

// Load загружает список чатов, если он ещё не загружен.
func (d *Directory) Load(ctx context.Context) error {
	d.mu.RLock()
	loaded := d.loaded
	d.mu.RUnlock()
	if loaded {
		return nil
	}
	return d.Reload(ctx)
}

// Reload принудительно перечитывает список чатов.
func (d *Directory) Reload(ctx context.Context) error {
	rooms, err := d.fetch(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.rooms = rooms
	d.loaded = true
	d.mu.Unlock()
	d.log.Debug().Int("rooms", len(rooms)).Msg("directory: каталог чатов загружен")
	return nil
}

func (d *Directory) fetch(ctx context.Context) ([]domain.ChatRoom, error) {
	if d.cache != nil {
		if data, err := d.cache.Get(chatRoomsCacheKey); err == nil {
			var rooms []domain.ChatRoom
			if err := json.Unmarshal(data, &rooms); err == nil {
				return rooms, nil
			}
		}
	}
	if d.lister == nil {
		return nil, nil
	}
	rooms, err := d.lister.ChatRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("загрузка списка чатов: %w", err)
	}
	if d.cache != nil && d.ttl > 0 {
		if data, err := json.Marshal(rooms); err == nil {
			if err := d.cache.Set(chatRoomsCacheKey, data, d.ttl); err != nil {
				d.log.Warn().Err(err).Msg("directory: не удалось сохранить каталог в кэш")
			}
		}
	}
	return rooms, nil
}

// Resolve возвращает идентификатор чата: сначала точное совпадение имени,
// затем без учёта регистра, затем частичное. Если ничего не нашлось,
// возвращается исходное имя и false.
func (d *Directory) Resolve(name string) (string, bool) {
	query := strings.TrimSpace(name)
	if query == "" {
		return name, false
	}
	rooms := d.entries()
	for _, room := range rooms {
		for _, label := range labels(room) {
			if label == query {
				return room.Name, true
			}
		}
	}
	for _, room := range rooms {
		for _, label := range labels(room) {
			if strings.EqualFold(label, query) {
				return room.Name, true
			}
		}
	}
	lowerQuery := strings.ToLower(query)
	for _, room := range rooms {
		for _, label := range labels(room) {
			lower := strings.ToLower(label)
			if strings.Contains(lower, lowerQuery) || strings.Contains(lowerQuery, lower) {
				return room.Name, true
			}
		}
	}
	return query, false
}

// Search возвращает чаты, в имени которых встречается keyword.
func (d *Directory) Search(keyword string) []domain.ChatRoom {
	lowerKeyword := strings.ToLower(strings.TrimSpace(keyword))
	var out []domain.ChatRoom
	for _, room := range d.entries() {
		if lowerKeyword == "" {
			out = append(out, room)
			continue
		}
		for _, label := range labels(room) {
			if strings.Contains(strings.ToLower(label), lowerKeyword) {
				out = append(out, room)
				break
			}
		}
	}
	return out
}

func (d *Directory) entries() []domain.ChatRoom {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.ChatRoom, 0, len(d.mappings)+len(d.rooms))
	out = append(out, d.mappings...)
	out = append(out, d.rooms...)
	return out
}

func labels(room domain.ChatRoom) []string {
	out := make([]string, 0, 3)
	for _, l := range []string{room.Remark, room.NickName, room.Name} {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// LoadMappings читает пользовательские соответствия «имя: идентификатор» из YAML.
// Пустой путь означает отсутствие соответствий.
func LoadMappings(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("чтение файла соответствий: %w", err)
	}
	var mappings map[string]string
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("разбор файла соответствий: %w", err)
	}
	return mappings, nil
}
