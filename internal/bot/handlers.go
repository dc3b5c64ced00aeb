// internal/bot/handlers.go
package bot

import (
	"context"

	"finbot/internal/common/logger"
	"finbot/internal/models"
	"finbot/internal/rates"
	"finbot/internal/session"
	"finbot/internal/store"
)

var mainMenuOptions = []string{"منوی مالی", "برنامه ریزی", "تنظیمات", "راهنما"}
var financeMenuOptions = []string{"ثبت تراکنش", "گزارش", "موجودی", "کارت ها", "دسته ها", "منوی اصلی"}
var planningMenuOptions = []string{"برنامه امروز", "برنامه هفته", "منوی اصلی"}
var settingsMenuOptions = []string{"تغییر زبان", "واحد پول", "تقویم", "منوی اصلی"}
var helpMenuOptions = []string{"منوی مالی", "برنامه ریزی", "تنظیمات", "پاک کردن اطلاعات", "منوی اصلی"}

const helpText = `من دستیار مالی و برنامه ریزی شما هستم.

می‌توانید به زبان خودتان بنویسید، مثلا:
• «امروز ۲۰۰ تومن غذا دادم»
• «گزارش این ماه»
• «یادم بنداز جلسه ساعت ۱۴»

یا از دکمه‌های منو استفاده کنید.`

// Handlers owns the per-intent behavior. One instance serves all users.
type Handlers struct {
	store    store.Store
	rates    *rates.Service
	gateway  Gateway
	sessions *session.Manager
	isAdmin  func(userID int64) bool
	logger   logger.Logger
}

func NewHandlers(st store.Store, rateSvc *rates.Service, gw Gateway, sessions *session.Manager, isAdmin func(int64) bool, log logger.Logger) *Handlers {
	return &Handlers{
		store:    st,
		rates:    rateSvc,
		gateway:  gw,
		sessions: sessions,
		isAdmin:  isAdmin,
		logger: log.With(map[string]interface{}{
			"component": "handlers",
		}),
	}
}

// Register installs every route on the router.
func (h *Handlers) Register(r *Router) {
	r.Handle(models.SectionMain, models.ActionOpenMenu, h.handleMainMenu)
	r.Handle(models.SectionMain, models.ActionFallbackToButtons, h.handleFallback)
	r.Handle(models.SectionHelp, models.ActionOpenMenu, h.handleHelp)
	r.Handle(models.SectionHelp, models.ActionShowHelp, h.handleHelp)
	r.Handle(models.SectionHelp, models.ActionClearData, h.handleClearData)
	r.Handle(models.SectionHelp, models.ActionClearDataConfirm, h.handleClearDataConfirm)

	r.Handle(models.SectionFinance, models.ActionOpenMenu, h.handleFinanceMenu)
	r.Handle(models.SectionFinance, models.ActionAddTransaction, h.handleAddTransaction)
	r.Handle(models.SectionFinance, models.ActionShowReport, h.handleShowReport)
	r.Handle(models.SectionFinance, models.ActionCheckBalance, h.handleCheckBalance)
	r.Handle(models.SectionFinance, models.ActionAddCard, h.handleAddCard)
	r.Handle(models.SectionFinance, models.ActionDeleteCard, h.handleDeleteCard)
	r.Handle(models.SectionFinance, models.ActionListCards, h.handleListCards)
	r.Handle(models.SectionFinance, models.ActionAddCategory, h.handleAddCategory)
	r.Handle(models.SectionFinance, models.ActionListCategories, h.handleListCategories)

	r.Handle(models.SectionPlanning, models.ActionOpenMenu, h.handlePlanningMenu)
	r.Handle(models.SectionPlanning, models.ActionAddPlan, h.handleAddPlan)
	r.Handle(models.SectionPlanning, models.ActionViewToday, h.handleViewToday)
	r.Handle(models.SectionPlanning, models.ActionViewWeek, h.handleViewWeek)
	r.Handle(models.SectionPlanning, models.ActionMarkDone, h.handleMarkDone)
	r.Handle(models.SectionPlanning, models.ActionDeletePlan, h.handleDeletePlan)

	r.Handle(models.SectionSettings, models.ActionOpenMenu, h.handleSettingsMenu)
	r.Handle(models.SectionSettings, models.ActionSetLanguage, h.handleSetLanguage)
	r.Handle(models.SectionSettings, models.ActionSetCurrency, h.handleSetCurrency)
	r.Handle(models.SectionSettings, models.ActionSetCalendar, h.handleSetCalendar)

	r.Handle(models.SectionAdmin, models.ActionListUsers, h.handleListUsers)
	r.Handle(models.SectionAdmin, models.ActionUserStats, h.handleUserStats)

	r.SetFallback(h.handleFallback)
}

// ==========================
// Menus and Fallback
// ==========================

func (h *Handlers) handleMainMenu(ctx context.Context, req *Request) error {
	_, err := h.gateway.SendChoices(ctx, req.ChatID, "چه کاری انجام بدهم؟", mainMenuOptions)
	return err
}

func (h *Handlers) handleFallback(ctx context.Context, req *Request) error {
	_, err := h.gateway.SendChoices(ctx, req.ChatID,
		"متوجه نشدم. یکی از گزینه‌ها را انتخاب کنید:", mainMenuOptions)
	return err
}

func (h *Handlers) handleHelp(ctx context.Context, req *Request) error {
	_, err := h.gateway.SendChoices(ctx, req.ChatID, helpText, helpMenuOptions)
	return err
}

func (h *Handlers) handleFinanceMenu(ctx context.Context, req *Request) error {
	_, err := h.gateway.SendChoices(ctx, req.ChatID, "بخش مالی:", financeMenuOptions)
	return err
}

func (h *Handlers) handlePlanningMenu(ctx context.Context, req *Request) error {
	_, err := h.gateway.SendChoices(ctx, req.ChatID, "بخش برنامه ریزی:", planningMenuOptions)
	return err
}

func (h *Handlers) handleSettingsMenu(ctx context.Context, req *Request) error {
	_, err := h.gateway.SendChoices(ctx, req.ChatID, "تنظیمات:", settingsMenuOptions)
	return err
}

// sendSessionReply delivers a slot-filling reply and tracks the prompt so
// cancel can clean it up.
func (h *Handlers) sendSessionReply(ctx context.Context, chatID, userID int64, reply *session.Reply) error {
	for _, id := range reply.CleanupIDs {
		if err := h.gateway.DeleteMessage(ctx, chatID, id); err != nil {
			h.logger.WithError(err).Debug("prompt cleanup failed", map[string]interface{}{
				"messageId": id,
			})
		}
	}

	msgID, err := h.gateway.SendChoices(ctx, chatID, reply.Text, reply.Options)
	if err != nil {
		return err
	}
	if !reply.Done {
		h.sessions.TrackPrompt(userID, msgID)
	}
	return nil
}
