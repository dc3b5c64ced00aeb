// Package bot wires incoming chat messages to the understanding stack and
// sends the replies back out.
package bot

import "context"

// Update is one incoming user message, normalized away from any specific
// messaging platform.
type Update struct {
	UpdateID  int
	MessageID int
	UserID    int64
	ChatID    int64
	Language  string
	Text      string
}

// Gateway is the outbound messaging surface. Send methods return the sent
// message ID so transient prompts can be deleted later.
type Gateway interface {
	Poll(ctx context.Context, offset int) ([]Update, error)
	SendText(ctx context.Context, chatID int64, text string) (int, error)
	SendChoices(ctx context.Context, chatID int64, text string, options []string) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}
