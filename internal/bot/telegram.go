// internal/bot/telegram.go
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"time"

	"finbot/internal/common/http"
	"finbot/internal/common/logger"
)

// TelegramGateway implements Gateway over the Telegram Bot HTTP API with
// long polling.
type TelegramGateway struct {
	baseURL     string
	pollTimeout time.Duration
	client      *http.Client
	logger      logger.Logger
}

func NewTelegramGateway(token string, pollTimeout time.Duration, log logger.Logger) *TelegramGateway {
	return &TelegramGateway{
		baseURL:     fmt.Sprintf("https://api.telegram.org/bot%s", token),
		pollTimeout: pollTimeout,
		// the poll request itself blocks up to pollTimeout server side
		client: http.NewClient(pollTimeout + 10*time.Second),
		logger: log.With(map[string]interface{}{
			"component": "telegram",
		}),
	}
}

// ==========================
// Wire Types
// ==========================

type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type tgUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		MessageID int `json:"message_id"`
		From      struct {
			ID           int64  `json:"id"`
			LanguageCode string `json:"language_code"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

type tgSendMessage struct {
	ChatID      int64       `json:"chat_id"`
	Text        string      `json:"text"`
	ReplyMarkup interface{} `json:"reply_markup,omitempty"`
}

type tgKeyboard struct {
	Keyboard        [][]tgKeyboardButton `json:"keyboard"`
	ResizeKeyboard  bool                 `json:"resize_keyboard"`
	OneTimeKeyboard bool                 `json:"one_time_keyboard"`
}

type tgKeyboardButton struct {
	Text string `json:"text"`
}

// ==========================
// Gateway Implementation
// ==========================

func (g *TelegramGateway) Poll(ctx context.Context, offset int) ([]Update, error) {
	url := fmt.Sprintf("%s/getUpdates?timeout=%d&offset=%d&allowed_updates=[\"message\"]",
		g.baseURL, int(g.pollTimeout.Seconds()), offset)

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	result, err := g.call(req)
	if err != nil {
		return nil, err
	}

	var raw []tgUpdate
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}

	updates := make([]Update, 0, len(raw))
	for _, u := range raw {
		if u.Message == nil || u.Message.Text == "" {
			// skip stickers, joins, edits; offset still advances
			updates = append(updates, Update{UpdateID: u.UpdateID})
			continue
		}
		updates = append(updates, Update{
			UpdateID:  u.UpdateID,
			MessageID: u.Message.MessageID,
			UserID:    u.Message.From.ID,
			ChatID:    u.Message.Chat.ID,
			Language:  u.Message.From.LanguageCode,
			Text:      u.Message.Text,
		})
	}
	return updates, nil
}

func (g *TelegramGateway) SendText(ctx context.Context, chatID int64, text string) (int, error) {
	return g.send(ctx, tgSendMessage{ChatID: chatID, Text: text})
}

func (g *TelegramGateway) SendChoices(ctx context.Context, chatID int64, text string, options []string) (int, error) {
	if len(options) == 0 {
		return g.SendText(ctx, chatID, text)
	}

	// two buttons per row reads well on phones
	var rows [][]tgKeyboardButton
	for i := 0; i < len(options); i += 2 {
		row := []tgKeyboardButton{{Text: options[i]}}
		if i+1 < len(options) {
			row = append(row, tgKeyboardButton{Text: options[i+1]})
		}
		rows = append(rows, row)
	}

	return g.send(ctx, tgSendMessage{
		ChatID: chatID,
		Text:   text,
		ReplyMarkup: tgKeyboard{
			Keyboard:        rows,
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		},
	})
}

func (g *TelegramGateway) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	body, _ := json.Marshal(map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost,
		g.baseURL+"/deleteMessage", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = g.call(req)
	return err
}

func (g *TelegramGateway) send(ctx context.Context, msg tgSendMessage) (int, error) {
	body, _ := json.Marshal(msg)

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost,
		g.baseURL+"/sendMessage", bytes.NewBuffer(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	result, err := g.call(req)
	if err != nil {
		return 0, err
	}

	var sent struct {
		MessageID int `json:"message_id"`
	}
	if err := json.Unmarshal(result, &sent); err != nil {
		return 0, fmt.Errorf("decode sent message: %w", err)
	}
	return sent.MessageID, nil
}

func (g *TelegramGateway) call(req *nethttp.Request) (json.RawMessage, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode api envelope: %w", err)
	}
	if !envelope.OK {
		return nil, fmt.Errorf("telegram api error: %s", envelope.Description)
	}
	return envelope.Result, nil
}
