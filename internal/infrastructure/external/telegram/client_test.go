package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/notification"
	"github.com/mariners-hub/mariners-gameday-hub/pkg/retry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultClientConfig("test-token")
	config.BaseURL = server.URL
	config.Timeout = 2 * time.Second
	config.Retrier = retry.New(retry.WithMaxAttempts(1))
	config.GlobalRateLimit = 1000

	return NewClient(config)
}

func TestSend_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":42,"chat":{"id":100,"type":"private"},"date":1752570000}}`)
	})

	result := client.Send(context.Background(), 100, "hello", notification.DefaultDeliveryOptions())

	require.True(t, result.Success)
	assert.Equal(t, "42", result.MessageID)
}

func TestSend_RateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 17","parameters":{"retry_after":17}}`)
	})

	result := client.Send(context.Background(), 100, "hello", notification.DefaultDeliveryOptions())

	require.False(t, result.Success)
	assert.True(t, result.RateLimited)
	assert.True(t, result.Retryable)
	assert.Equal(t, 17*time.Second, result.RetryAfter)
}

func TestSend_BlockedIsPermanent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
	})

	result := client.Send(context.Background(), 100, "hello", notification.DefaultDeliveryOptions())

	require.False(t, result.Success)
	assert.False(t, result.Retryable)
	assert.ErrorIs(t, result.Error, notification.ErrRecipientBlocked)
}

func TestSend_ChatNotFoundIsPermanent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})

	result := client.Send(context.Background(), 100, "hello", notification.DefaultDeliveryOptions())

	require.False(t, result.Success)
	assert.False(t, result.Retryable)
	assert.ErrorIs(t, result.Error, notification.ErrChatNotFound)
}

func TestSend_ServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":502,"description":"Bad Gateway"}`)
	})

	result := client.Send(context.Background(), 100, "hello", notification.DefaultDeliveryOptions())

	require.False(t, result.Success)
	assert.True(t, result.Retryable)
}

func TestSendMessage_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			fmt.Fprint(w, `{"ok":false,"error_code":500,"description":"Internal Server Error"}`)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"chat":{"id":100,"type":"private"},"date":1752570000}}`)
	}))
	defer server.Close()

	config := DefaultClientConfig("test-token")
	config.BaseURL = server.URL
	config.Retrier = retry.New(
		retry.WithMaxAttempts(3),
		retry.WithInitialDelay(time.Millisecond),
	)

	client := NewClient(config)

	msg, err := client.SendMessage(context.Background(), SendMessageParams{ChatID: 100, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.MessageID)
	assert.Equal(t, 2, attempts)
}

func TestSendMessage_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: message text is empty"}`)
	}))
	defer server.Close()

	config := DefaultClientConfig("test-token")
	config.BaseURL = server.URL
	config.Retrier = retry.New(
		retry.WithMaxAttempts(3),
		retry.WithInitialDelay(time.Millisecond),
	)

	client := NewClient(config)

	_, err := client.SendMessage(context.Background(), SendMessageParams{ChatID: 100, Text: ""})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, 1, attempts)
}

func TestExtractCommand(t *testing.T) {
	msg := &Message{
		Text: "/settings now",
		Entities: []MessageEntity{
			{Type: "bot_command", Offset: 0, Length: 9},
		},
	}

	assert.Equal(t, "settings", ExtractCommand(msg))
	assert.Equal(t, "now", ExtractCommandArgs(msg))
}

func TestExtractCommand_StripsBotUsername(t *testing.T) {
	msg := &Message{
		Text: "/nextgame@MarinersHubBot",
		Entities: []MessageEntity{
			{Type: "bot_command", Offset: 0, Length: 24},
		},
	}

	assert.Equal(t, "nextgame", ExtractCommand(msg))
}

func TestExtractCommand_NoCommand(t *testing.T) {
	assert.Equal(t, "", ExtractCommand(&Message{Text: "hello"}))
	assert.Equal(t, "", ExtractCommand(nil))
}
