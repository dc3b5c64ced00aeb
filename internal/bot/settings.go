// internal/bot/settings.go
package bot

import (
	"context"
	"strings"

	"finbot/internal/models"
)

func (h *Handlers) handleSetLanguage(ctx context.Context, req *Request) error {
	lowered := strings.ToLower(req.Text)

	var language string
	switch {
	case strings.Contains(lowered, "فارسی") || strings.Contains(lowered, "persian") || hasToken(lowered, "fa"):
		language = "fa"
	case strings.Contains(lowered, "انگلیسی") || strings.Contains(lowered, "english") || hasToken(lowered, "en"):
		language = "en"
	default:
		_, err := h.gateway.SendChoices(ctx, req.ChatID, "زبان را انتخاب کنید:", []string{"فارسی", "English"})
		return err
	}

	if err := h.store.SetLanguage(ctx, req.UserID, language); err != nil {
		return err
	}
	_, err := h.gateway.SendText(ctx, req.ChatID, "زبان به‌روزرسانی شد.")
	return err
}

func (h *Handlers) handleSetCurrency(ctx context.Context, req *Request) error {
	lowered := strings.ToLower(req.Text)

	var currency models.Currency
	switch {
	case strings.Contains(lowered, "تومان") || strings.Contains(lowered, "تومن") || strings.Contains(lowered, "toman"):
		currency = models.CurrencyToman
	case strings.Contains(lowered, "دلار") || strings.Contains(lowered, "dollar"):
		currency = models.CurrencyDollar
	default:
		_, err := h.gateway.SendChoices(ctx, req.ChatID, "واحد پول را انتخاب کنید:", []string{"تومان", "دلار"})
		return err
	}

	return h.updateSettings(ctx, req, func(s *models.Settings) {
		s.Currency = currency
	})
}

func (h *Handlers) handleSetCalendar(ctx context.Context, req *Request) error {
	lowered := strings.ToLower(req.Text)

	var system models.CalendarSystem
	switch {
	case strings.Contains(lowered, "شمسی") || strings.Contains(lowered, "جلالی") || strings.Contains(lowered, "jalali"):
		system = models.CalendarJalali
	case strings.Contains(lowered, "میلادی") || strings.Contains(lowered, "gregorian"):
		system = models.CalendarGregorian
	default:
		_, err := h.gateway.SendChoices(ctx, req.ChatID, "تقویم را انتخاب کنید:", []string{"شمسی", "میلادی"})
		return err
	}

	return h.updateSettings(ctx, req, func(s *models.Settings) {
		s.Calendar = system
	})
}

// hasToken matches whole whitespace-separated words, so short codes like
// "fa" cannot fire inside unrelated text.
func hasToken(text string, candidates ...string) bool {
	for _, field := range strings.Fields(text) {
		for _, c := range candidates {
			if field == c {
				return true
			}
		}
	}
	return false
}

func (h *Handlers) updateSettings(ctx context.Context, req *Request, apply func(*models.Settings)) error {
	settings, err := h.store.GetSettings(ctx, req.UserID)
	if err != nil {
		return err
	}
	apply(settings)
	if err := h.store.UpdateSettings(ctx, settings); err != nil {
		return err
	}
	_, err = h.gateway.SendText(ctx, req.ChatID, "تنظیمات به‌روزرسانی شد.")
	return err
}

// ==========================
// Data Maintenance
// ==========================

const clearDataWarning = `همه تراکنش‌ها، کارت‌ها، دسته‌ها و برنامه‌های شما پاک می‌شود.
این کار قابل بازگشت نیست. مطمئن هستید؟`

// handleClearData only warns; the wipe itself needs the explicit
// confirmation phrase in a separate message.
func (h *Handlers) handleClearData(ctx context.Context, req *Request) error {
	_, err := h.gateway.SendChoices(ctx, req.ChatID, clearDataWarning,
		[]string{"بله، پاک کن", "منوی اصلی"})
	return err
}

func (h *Handlers) handleClearDataConfirm(ctx context.Context, req *Request) error {
	if err := h.store.ClearUserData(ctx, req.UserID); err != nil {
		return err
	}
	h.logger.Info("user data cleared", map[string]interface{}{
		"userId": req.UserID,
	})
	_, err := h.gateway.SendChoices(ctx, req.ChatID, "همه اطلاعات شما پاک شد.", mainMenuOptions)
	return err
}
