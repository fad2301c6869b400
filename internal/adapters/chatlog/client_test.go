package chatlog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatlog-digest/internal/domain"
)

var period = domain.SingleDay(time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC))

func TestClientRecordsSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chatlog", r.URL.Path)
		assert.Equal(t, "2025-12-11~2025-12-11", r.URL.Query().Get("time"))
		assert.Equal(t, "123@chatroom", r.URL.Query().Get("talker"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`[{"time":"2025-12-11T09:00:00+08:00","sender":"wxid_a","senderName":"Alice","content":"早上好"}]`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)
	records, err := client.Records(context.Background(), "123@chatroom", period)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "早上好", records[0]["content"])
}

func TestClientRecordsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":2,"messages":[{"text":"a"},{"text":"b"}]}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)
	records, err := client.Records(context.Background(), "x", period)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestClientRecordsUnknownPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)
	_, err = client.Records(context.Background(), "x", period)
	assert.ErrorIs(t, err, ErrUnknownPayload)
}

func TestClientMapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "talker not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = client.Records(context.Background(), "x", period)
	assert.True(t, errors.Is(err, domain.ErrChatNotFound))
}

func TestClientChatRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chatroom", r.URL.Path)
		_, _ = w.Write([]byte(`{"items":[{"name":"1@chatroom","nickName":"产品讨论组","remark":"","users":[{},{}]},{"name":""}]}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)
	rooms, err := client.ChatRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, domain.ChatRoom{Name: "1@chatroom", NickName: "产品讨论组", UserCount: 2}, rooms[0])
}

func TestClientPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestSourceResolvesAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/chatroom":
			_, _ = w.Write([]byte(`{"items":[{"name":"42@chatroom","nickName":"周末读书会"}]}`))
		case "/api/v1/chatlog":
			assert.Equal(t, "42@chatroom", r.URL.Query().Get("talker"))
			_, _ = w.Write([]byte(`{"data":[{"time":"2025-12-11 09:00:00","from":"bob","content":"本周读什么"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)
	dir := NewDirectory(client, nil, 0, nil, zerolog.Nop())
	source := NewSource(client, dir, time.UTC, zerolog.Nop())

	chatID, messages, err := source.FetchMessages(context.Background(), "读书会", period)
	require.NoError(t, err)
	assert.Equal(t, "42@chatroom", chatID)
	require.Len(t, messages, 1)
	assert.Equal(t, "bob", messages[0].Sender)
	assert.Equal(t, time.Date(2025, 12, 11, 9, 0, 0, 0, time.UTC), messages[0].Timestamp)
}
