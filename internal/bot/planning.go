// internal/bot/planning.go
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finbot/internal/calendar"
	"finbot/internal/models"
)

func (h *Handlers) handleAddPlan(ctx context.Context, req *Request) error {
	if req.Intent.Title == nil || strings.TrimSpace(*req.Intent.Title) == "" {
		_, err := h.gateway.SendText(ctx, req.ChatID,
			"چه چیزی را یادآوری کنم؟ مثلا: یادم بنداز جلسه ساعت ۱۴")
		return err
	}

	plan := &models.Plan{
		UserID: req.UserID,
		Title:  strings.TrimSpace(*req.Intent.Title),
		Date:   calendar.Today(time.Now()),
	}
	if req.Intent.Date != nil {
		plan.Date = *req.Intent.Date
	}
	if req.Intent.Time != nil {
		plan.Time = *req.Intent.Time
	}

	if _, err := h.store.AddPlan(ctx, plan); err != nil {
		return err
	}

	confirmation := fmt.Sprintf("ثبت شد: %s", plan.Title)
	if plan.Time != "" {
		confirmation += " ساعت " + plan.Time
	}
	_, err := h.gateway.SendText(ctx, req.ChatID, confirmation)
	return err
}

func (h *Handlers) handleViewToday(ctx context.Context, req *Request) error {
	today := calendar.Today(time.Now())
	return h.sendPlanList(ctx, req, today, today, "برنامه امروز")
}

func (h *Handlers) handleViewWeek(ctx context.Context, req *Request) error {
	start, end := calendar.WeekRange(time.Now())
	return h.sendPlanList(ctx, req, start, end, "برنامه هفت روز آینده")
}

func (h *Handlers) sendPlanList(ctx context.Context, req *Request, start, end, title string) error {
	plans, err := h.store.ListPlansBetween(ctx, req.UserID, start, end)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		_, err = h.gateway.SendChoices(ctx, req.ChatID, "برنامه‌ای ثبت نشده است.", planningMenuOptions)
		return err
	}

	settings, err := h.store.GetSettings(ctx, req.UserID)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(title + ":\n")
	for _, p := range plans {
		mark := "⬜"
		if p.IsDone {
			mark = "✅"
		}
		display, _ := calendar.Format(settings.Calendar, p.Date)
		fmt.Fprintf(&b, "%s %s — %s", mark, display, p.Title)
		if p.Time != "" {
			fmt.Fprintf(&b, " (%s)", p.Time)
		}
		b.WriteString("\n")
	}

	_, err = h.gateway.SendText(ctx, req.ChatID, b.String())
	return err
}

// findPlanByTitle matches upcoming plans by substring, most recent month
// first.
func (h *Handlers) findPlanByTitle(ctx context.Context, userID int64, title string) (*models.Plan, error) {
	now := time.Now()
	start := calendar.Today(now.AddDate(0, -1, 0))
	end := calendar.Today(now.AddDate(0, 1, 0))

	plans, err := h.store.ListPlansBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	needle := strings.TrimSpace(title)
	for i := len(plans) - 1; i >= 0; i-- {
		if strings.Contains(plans[i].Title, needle) {
			return &plans[i], nil
		}
	}
	return nil, nil
}

func (h *Handlers) handleMarkDone(ctx context.Context, req *Request) error {
	if req.Intent.Title == nil {
		_, err := h.gateway.SendText(ctx, req.ChatID, "کدام کار انجام شد؟ عنوانش را بنویسید.")
		return err
	}

	plan, err := h.findPlanByTitle(ctx, req.UserID, *req.Intent.Title)
	if err != nil {
		return err
	}
	if plan == nil {
		_, err = h.gateway.SendText(ctx, req.ChatID, "برنامه‌ای با این عنوان پیدا نشد.")
		return err
	}

	if err := h.store.MarkPlanDone(ctx, req.UserID, plan.ID); err != nil {
		return err
	}
	_, err = h.gateway.SendText(ctx, req.ChatID, fmt.Sprintf("«%s» انجام شد ✅", plan.Title))
	return err
}

func (h *Handlers) handleDeletePlan(ctx context.Context, req *Request) error {
	if req.Intent.Title == nil {
		_, err := h.gateway.SendText(ctx, req.ChatID, "کدام برنامه حذف شود؟ عنوانش را بنویسید.")
		return err
	}

	plan, err := h.findPlanByTitle(ctx, req.UserID, *req.Intent.Title)
	if err != nil {
		return err
	}
	if plan == nil {
		_, err = h.gateway.SendText(ctx, req.ChatID, "برنامه‌ای با این عنوان پیدا نشد.")
		return err
	}

	if err := h.store.DeletePlan(ctx, req.UserID, plan.ID); err != nil {
		return err
	}
	_, err = h.gateway.SendText(ctx, req.ChatID, fmt.Sprintf("«%s» حذف شد.", plan.Title))
	return err
}
