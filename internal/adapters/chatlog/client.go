package chatlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/infra/metrics"
)

// DefaultBaseURL — адрес локального сервиса истории чатов.
const DefaultBaseURL = "http://127.0.0.1:5030"

// Client обращается к HTTP API сервиса истории чатов.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option настраивает клиент.
type Option func(*Client)

// WithHTTPClient подменяет HTTP клиент.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout задаёт таймаут запросов.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// New создаёт клиент.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("разбор адреса сервиса истории: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Records возвращает сырые записи чата за период.
func (c *Client) Records(ctx context.Context, talker string, period domain.Period) ([]Record, error) {
	query := url.Values{}
	query.Set("time", period.Param())
	query.Set("talker", talker)
	query.Set("format", "json")

	var raw json.RawMessage
	if err := c.get(ctx, "chatlog", "/api/v1/chatlog", query, &raw); err != nil {
		return nil, err
	}
	records, err := decodeRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("разбор истории чата %s: %w", talker, err)
	}
	return records, nil
}

// ChatRooms возвращает список групповых чатов.
func (c *Client) ChatRooms(ctx context.Context) ([]domain.ChatRoom, error) {
	query := url.Values{}
	query.Set("format", "json")
	var resp chatRoomList
	if err := c.get(ctx, "chatroom", "/api/v1/chatroom", query, &resp); err != nil {
		return nil, err
	}
	rooms := make([]domain.ChatRoom, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Name == "" {
			continue
		}
		rooms = append(rooms, domain.ChatRoom{
			Name:      item.Name,
			NickName:  item.NickName,
			Remark:    item.Remark,
			Owner:     item.Owner,
			UserCount: len(item.Users),
		})
	}
	return rooms, nil
}

// Ping проверяет доступность сервиса через SSE эндпоинт.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/sse", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("chatlog", "ping", c.baseURL.Host, start, err)
	if err != nil {
		return fmt.Errorf("проверка сервиса истории: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("проверка сервиса истории: статус %d", resp.StatusCode)
	}
	return nil
}

type chatRoomList struct {
	Items []struct {
		Name     string            `json:"name"`
		NickName string            `json:"nickName"`
		Remark   string            `json:"remark"`
		Owner    string            `json:"owner"`
		Users    []json.RawMessage `json:"users"`
	} `json:"items"`
}

func (c *Client) get(ctx context.Context, operation, endpoint string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, query)
	if err != nil {
		return err
	}
	start := time.Now()
	err = c.do(req, out)
	metrics.ObserveNetworkRequest("chatlog", operation, c.baseURL.Host, start, err)
	return err
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values) (*http.Request, error) {
	resolved := *c.baseURL
	basePath := strings.TrimSuffix(c.baseURL.Path, "/")
	resolved.Path = path.Clean(basePath + endpoint)
	resolved.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, resolved.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос к сервису истории: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return mapAPIError(resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа: %w", err)
	}
	return nil
}

func mapAPIError(status int, message string) error {
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrChatNotFound, message)
	}
	return fmt.Errorf("сервис истории: статус=%d сообщение=%s", status, message)
}

var _ domain.ChatRoomLister = (*Client)(nil)
