// internal/bot/finance.go
package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finbot/internal/calendar"
	"finbot/internal/models"
	"finbot/internal/session"
	"finbot/internal/textnorm"
)

var cardNumberRe = regexp.MustCompile(`\b\d{16}\b`)

// handleAddTransaction seeds a slot-filling session from whatever the
// intent already carries and asks for the first missing slot. A bare
// intent, like the finance-menu button, opens a blank manual session.
func (h *Handlers) handleAddTransaction(ctx context.Context, req *Request) error {
	var reply *session.Reply
	if hasTransactionSeeds(req.Intent) {
		reply = h.sessions.StartFromIntent(ctx, req.UserID, req.Intent)
	} else {
		reply = h.sessions.Start(ctx, req.UserID)
	}
	return h.sendSessionReply(ctx, req.ChatID, req.UserID, reply)
}

func hasTransactionSeeds(i *models.Intent) bool {
	return i.Amount != nil || i.Type != nil || i.Category != nil ||
		i.CardHint != nil || i.Note != nil || i.Date != nil || i.Time != nil
}

func (h *Handlers) handleShowReport(ctx context.Context, req *Request) error {
	settings, err := h.store.GetSettings(ctx, req.UserID)
	if err != nil {
		return err
	}

	start, end := calendar.MonthRange(settings.Calendar, time.Now())
	if req.Intent.RangeStart != nil && req.Intent.RangeEnd != nil {
		start, end = *req.Intent.RangeStart, *req.Intent.RangeEnd
	}

	report, err := h.store.Report(ctx, req.UserID, start, end)
	if err != nil {
		return err
	}

	displayStart, _ := calendar.Format(settings.Calendar, start)
	displayEnd, _ := calendar.Format(settings.Calendar, end)

	var b strings.Builder
	fmt.Fprintf(&b, "گزارش %s تا %s\n", displayStart, displayEnd)
	fmt.Fprintf(&b, "درآمد: %s تومان\n", report.Income.StringFixed(0))
	fmt.Fprintf(&b, "هزینه: %s تومان\n", report.Expense.StringFixed(0))
	fmt.Fprintf(&b, "خالص: %s تومان\n", report.Net().StringFixed(0))

	if h.rates != nil && !report.Net().IsZero() {
		price := h.rates.USDPrice(ctx, time.Now())
		if price.IsPositive() {
			fmt.Fprintf(&b, "معادل دلاری خالص: %s$\n", report.Net().Div(price).StringFixed(2))
		}
	}

	if len(report.ByExpense) > 0 {
		b.WriteString("\nهزینه به تفکیک دسته:\n")
		for _, row := range report.ByExpense {
			fmt.Fprintf(&b, "• %s: %s تومان\n", row.Category, row.Total.StringFixed(0))
		}
	}

	_, err = h.gateway.SendText(ctx, req.ChatID, b.String())
	return err
}

func (h *Handlers) handleCheckBalance(ctx context.Context, req *Request) error {
	if req.Intent.CardHint != nil {
		account, err := h.store.GetAccountByCardHint(ctx, req.UserID, *req.Intent.CardHint)
		if err != nil {
			_, sendErr := h.gateway.SendText(ctx, req.ChatID, "کارتی با این شماره پیدا نشد.")
			return sendErr
		}
		_, err = h.gateway.SendText(ctx, req.ChatID,
			fmt.Sprintf("موجودی %s: %s تومان", account.Name, account.Balance.StringFixed(0)))
		return err
	}

	accounts, err := h.store.ListAccounts(ctx, req.UserID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		_, err = h.gateway.SendChoices(ctx, req.ChatID,
			"هنوز کارتی ثبت نکرده‌اید. با «افزودن کارت» شروع کنید.", financeMenuOptions)
		return err
	}

	total := decimal.Zero
	var b strings.Builder
	b.WriteString("موجودی حساب‌ها:\n")
	for _, a := range accounts {
		fmt.Fprintf(&b, "• %s: %s تومان\n", a.Name, a.Balance.StringFixed(0))
		total = total.Add(a.Balance)
	}
	fmt.Fprintf(&b, "\nجمع کل: %s تومان", total.StringFixed(0))

	_, err = h.gateway.SendText(ctx, req.ChatID, b.String())
	return err
}

// ==========================
// Card Sources
// ==========================

var cardFillerWords = map[string]bool{
	"افزودن": true, "کارت": true, "جدید": true, "منبع": true, "اضافه": true, "کردن": true,
	"add": true, "card": true, "new": true, "source": true,
}

// handleAddCard parses a one-shot "افزودن کارت <نام> <شماره ۱۶ رقمی>
// [موجودی]" message.
func (h *Handlers) handleAddCard(ctx context.Context, req *Request) error {
	folded := textnorm.Digits(req.Text)

	number := cardNumberRe.FindString(folded)
	name, balance := parseCardNameAndBalance(folded, number)

	if name == "" {
		_, err := h.gateway.SendText(ctx, req.ChatID,
			"برای افزودن کارت بنویسید: افزودن کارت <نام> <شماره ۱۶ رقمی> <موجودی اولیه>")
		return err
	}

	account := &models.Account{
		UserID:     req.UserID,
		Name:       name,
		CardNumber: number,
		Balance:    balance,
	}
	if _, err := h.store.AddAccount(ctx, account); err != nil {
		return err
	}

	_, err := h.gateway.SendText(ctx, req.ChatID,
		fmt.Sprintf("کارت «%s» با موجودی %s تومان ثبت شد.", name, balance.StringFixed(0)))
	return err
}

func parseCardNameAndBalance(folded, number string) (string, decimal.Decimal) {
	balance := decimal.Zero
	var nameParts []string

	for _, token := range strings.Fields(folded) {
		if token == number && number != "" {
			continue
		}
		if cardFillerWords[strings.ToLower(token)] {
			continue
		}
		if value, err := decimal.NewFromString(textnorm.StripSeparators(token)); err == nil {
			balance = value
			continue
		}
		nameParts = append(nameParts, token)
	}
	return strings.Join(nameParts, " "), balance
}

func (h *Handlers) handleDeleteCard(ctx context.Context, req *Request) error {
	if req.Intent.CardHint == nil {
		_, err := h.gateway.SendText(ctx, req.ChatID,
			"کدام کارت؟ چهار رقم آخر آن را همراه پیام بفرستید، مثلا: حذف کارت ۱۲۳۴")
		return err
	}

	account, err := h.store.GetAccountByCardHint(ctx, req.UserID, *req.Intent.CardHint)
	if err != nil {
		_, sendErr := h.gateway.SendText(ctx, req.ChatID, "کارتی با این شماره پیدا نشد.")
		return sendErr
	}
	if err := h.store.DeleteAccount(ctx, req.UserID, account.ID); err != nil {
		return err
	}

	_, err = h.gateway.SendText(ctx, req.ChatID, fmt.Sprintf("کارت «%s» حذف شد.", account.Name))
	return err
}

func (h *Handlers) handleListCards(ctx context.Context, req *Request) error {
	accounts, err := h.store.ListAccounts(ctx, req.UserID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		_, err = h.gateway.SendText(ctx, req.ChatID, "هنوز کارتی ثبت نکرده‌اید.")
		return err
	}

	var b strings.Builder
	b.WriteString("کارت‌های شما:\n")
	for _, a := range accounts {
		hint := ""
		if len(a.CardNumber) >= 4 {
			hint = " (…" + a.CardNumber[len(a.CardNumber)-4:] + ")"
		}
		fmt.Fprintf(&b, "• %s%s: %s تومان\n", a.Name, hint, a.Balance.StringFixed(0))
	}

	_, err = h.gateway.SendText(ctx, req.ChatID, b.String())
	return err
}

// ==========================
// Categories
// ==========================

var categoryFillerWords = map[string]bool{
	"دسته": true, "بندی": true, "جدید": true, "افزودن": true,
	"add": true, "category": true, "new": true,
}

func (h *Handlers) handleAddCategory(ctx context.Context, req *Request) error {
	txType := models.TypeExpense
	if req.Intent.Type != nil {
		txType = *req.Intent.Type
	}

	var nameParts []string
	for _, token := range strings.Fields(req.Text) {
		if !categoryFillerWords[strings.ToLower(token)] {
			nameParts = append(nameParts, token)
		}
	}
	name := strings.Join(nameParts, " ")
	if name == "" {
		_, err := h.gateway.SendText(ctx, req.ChatID,
			"نام دسته را همراه پیام بفرستید، مثلا: دسته جدید کتاب")
		return err
	}

	if err := h.store.AddCategory(ctx, &models.Category{
		UserID: req.UserID,
		Name:   name,
		Type:   txType,
	}); err != nil {
		return err
	}

	_, err := h.gateway.SendText(ctx, req.ChatID, fmt.Sprintf("دسته «%s» اضافه شد.", name))
	return err
}

func (h *Handlers) handleListCategories(ctx context.Context, req *Request) error {
	var b strings.Builder

	for _, group := range []struct {
		label  string
		txType models.TransactionType
	}{
		{"هزینه", models.TypeExpense},
		{"درآمد", models.TypeIncome},
	} {
		categories, err := h.store.ListCategories(ctx, req.UserID, group.txType)
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			continue
		}
		fmt.Fprintf(&b, "دسته‌های %s:\n", group.label)
		for _, c := range categories {
			fmt.Fprintf(&b, "• %s\n", c.Name)
		}
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		b.WriteString("هنوز دسته‌ای ندارید.")
	}
	_, err := h.gateway.SendText(ctx, req.ChatID, strings.TrimSpace(b.String()))
	return err
}
