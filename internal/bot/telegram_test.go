package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/common/logger"
)

func newTestGateway(t *testing.T, serverURL string) *TelegramGateway {
	gw := NewTelegramGateway("test-token", 1*time.Second, logger.NewTestLogger(t))
	gw.baseURL = serverURL + "/bottest-token"
	return gw
}

func TestTelegramGateway_Poll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/bottest-token/getUpdates")
		assert.Equal(t, "5", r.URL.Query().Get("offset"))

		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":5,"message":{"message_id":10,"from":{"id":42,"language_code":"fa"},"chat":{"id":42},"text":"سلام"}},
			{"update_id":6}
		]}`))
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL)

	updates, err := gw.Poll(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, int64(42), updates[0].UserID)
	assert.Equal(t, "سلام", updates[0].Text)
	assert.Equal(t, "fa", updates[0].Language)
	// textless updates still advance the offset
	assert.Equal(t, 6, updates[1].UpdateID)
	assert.Empty(t, updates[1].Text)
}

func TestTelegramGateway_SendChoicesBuildsKeyboard(t *testing.T) {
	var captured tgSendMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"ok":true,"result":{"message_id":77}}`))
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL)

	msgID, err := gw.SendChoices(context.Background(), 42, "انتخاب کنید:", []string{"الف", "ب", "ج"})

	require.NoError(t, err)
	assert.Equal(t, 77, msgID)
	assert.Equal(t, int64(42), captured.ChatID)

	markup, err := json.Marshal(captured.ReplyMarkup)
	require.NoError(t, err)
	var kb tgKeyboard
	require.NoError(t, json.Unmarshal(markup, &kb))
	require.Len(t, kb.Keyboard, 2) // two per row
	assert.Equal(t, "الف", kb.Keyboard[0][0].Text)
	assert.Equal(t, "ج", kb.Keyboard[1][0].Text)
	assert.True(t, kb.OneTimeKeyboard)
}

func TestTelegramGateway_SendChoicesWithoutOptionsIsPlainText(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL)

	_, err := gw.SendChoices(context.Background(), 42, "فقط متن", nil)

	require.NoError(t, err)
	_, hasMarkup := captured["reply_markup"]
	assert.False(t, hasMarkup)
}

func TestTelegramGateway_APIErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL)

	_, err := gw.SendText(context.Background(), 42, "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}
