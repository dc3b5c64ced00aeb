package session

import (
	"fmt"
	"strings"

	"finbot/internal/models"
)

// Prompt texts per slot. The bot speaks Persian by default; English
// keywords are still accepted as answers.
const (
	promptAmount      = "مبلغ تراکنش چقدر است؟"
	promptType        = "این تراکنش درآمد است یا هزینه؟"
	promptCategory    = "دسته بندی تراکنش را انتخاب کنید یا بنویسید:"
	promptAccount     = "از کدام کارت یا منبع؟"
	promptDescription = "توضیحی دارید؟ (برای رد شدن «رد» بفرستید)"

	msgInvalidAmount   = "مبلغ باید یک عدد مثبت باشد. دوباره وارد کنید:"
	msgInvalidType     = "لطفا یکی از گزینه‌ها را انتخاب کنید: درآمد یا هزینه"
	msgAccountNotFound = "کارتی با این نام پیدا نشد. دوباره انتخاب کنید:"
	msgCommitFailed    = "ثبت تراکنش ناموفق بود، چیزی ذخیره نشد. دوباره تایید کنید یا لغو کنید."
	msgCommitted       = "ثبت شد ✅"
	msgCancelled       = "تراکنش لغو شد."
	msgAborted         = "این مورد متعلق به شما نیست. به منوی اصلی برگشتید."
)

var (
	typeOptions        = []string{"درآمد", "هزینه"}
	confirmOptions     = []string{"تایید", "لغو"}
	descriptionOptions = []string{"رد"}
)

var incomeAnswers = []string{"درآمد", "income", "واریز"}
var expenseAnswers = []string{"هزینه", "expense", "خرج"}
var skipAnswers = []string{"رد", "رد کردن", "skip"}
var yesAnswers = []string{"تایید", "بله", "آره", "yes", "confirm", "ok"}
var noAnswers = []string{"لغو", "خیر", "نه", "no", "cancel"}

func matchesAnswer(text string, answers []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, a := range answers {
		if normalized == a {
			return true
		}
	}
	return false
}

// confirmSummary renders the draft for the final yes/no step.
func confirmSummary(draft *models.TransactionDraft) string {
	var b strings.Builder
	b.WriteString("ثبت شود؟\n")

	typeLabel := "هزینه"
	if draft.Type != nil && *draft.Type == models.TypeIncome {
		typeLabel = "درآمد"
	}
	currency := "تومان"
	if draft.Currency != nil && *draft.Currency == models.CurrencyDollar {
		currency = "دلار"
	}

	fmt.Fprintf(&b, "%s %s %s", typeLabel, draft.Amount.String(), currency)
	if draft.Category != nil {
		fmt.Fprintf(&b, "\nدسته: %s", *draft.Category)
	}
	if draft.Date != nil {
		fmt.Fprintf(&b, "\nتاریخ: %s", *draft.Date)
	}
	if draft.Note != nil && *draft.Note != "" {
		fmt.Fprintf(&b, "\nتوضیح: %s", *draft.Note)
	}
	return b.String()
}
