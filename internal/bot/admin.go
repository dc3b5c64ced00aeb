// internal/bot/admin.go
package bot

import (
	"context"
	"fmt"
	"strings"
)

const msgNotAdmin = "این بخش فقط برای مدیر ربات است."

func (h *Handlers) handleListUsers(ctx context.Context, req *Request) error {
	if !h.isAdmin(req.UserID) {
		_, err := h.gateway.SendText(ctx, req.ChatID, msgNotAdmin)
		return err
	}

	users, err := h.store.ListUsers(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d کاربر ثبت شده:\n", len(users))
	for _, u := range users {
		fmt.Fprintf(&b, "• %d (%s) از %s\n", u.ID, u.Language, u.CreatedAt.Format("2006-01-02"))
	}

	_, err = h.gateway.SendText(ctx, req.ChatID, b.String())
	return err
}

func (h *Handlers) handleUserStats(ctx context.Context, req *Request) error {
	if !h.isAdmin(req.UserID) {
		_, err := h.gateway.SendText(ctx, req.ChatID, msgNotAdmin)
		return err
	}

	targetID := req.UserID
	if req.Intent.TargetUserID != nil {
		targetID = *req.Intent.TargetUserID
	}

	stats, err := h.store.GetUserStats(ctx, targetID)
	if err != nil {
		return err
	}

	_, err = h.gateway.SendText(ctx, req.ChatID, fmt.Sprintf(
		"آمار کاربر %d:\nتراکنش‌ها: %d\nکارت‌ها: %d\nبرنامه‌ها: %d",
		targetID, stats.TransactionCount, stats.AccountCount, stats.PlanCount))
	return err
}
