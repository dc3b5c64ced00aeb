// Package rules is the deterministic fallback for the remote understanding
// service. Matchers run in a strict order; the first hit wins.
package rules

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finbot/internal/calendar"
	"finbot/internal/common/logger"
	"finbot/internal/models"
	"finbot/internal/textnorm"
)

var (
	dateRe       = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	timeRe       = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	amountRe     = regexp.MustCompile(`\d{1,3}(?:[,،٬]\d{3})+|\d+(?:\.\d+)?`)
	cardHintRe   = regexp.MustCompile(`(?:کارت|card)\D{0,12}?(\d{4})\b`)
	balanceAmtRe = regexp.MustCompile(`(?:موجودی|balance)\D{0,12}?(\d[\d,،٬]*)`)
	partyRe      = regexp.MustCompile(`(?:از طرف|from)\s+([^\s,.،؛!?]+)`)
	rangeRe      = regexp.MustCompile(`(?:از|from)\s+(\d{4}[/-]\d{1,2}[/-]\d{1,2})\s*(?:تا|to)\s+(\d{4}[/-]\d{1,2}[/-]\d{1,2})`)
)

type matcher func(text string, now time.Time) *models.Intent

// Extractor turns free text into an intent without any remote call.
type Extractor struct {
	logger   logger.Logger
	pipeline []matcher
}

func NewExtractor(log logger.Logger) *Extractor {
	e := &Extractor{
		logger: log.With(map[string]interface{}{
			"component": "rules",
		}),
	}
	// Order is load-bearing: navigation always wins, the default always
	// matches.
	e.pipeline = []matcher{
		e.matchNavigation,
		e.matchTransaction,
		e.matchBalanceQuery,
		e.matchReport,
		e.matchCards,
		e.matchCategories,
		e.matchPlanning,
		e.matchSettings,
		e.matchMaintenance,
		e.matchAdmin,
	}
	return e
}

// Extract never returns nil; when nothing matches the result is the
// fallback-to-buttons intent.
func (e *Extractor) Extract(text string, now time.Time) *models.Intent {
	folded := strings.ToLower(textnorm.Digits(text))

	for _, match := range e.pipeline {
		if intent := match(folded, now); intent != nil {
			e.logger.Debug("rule matched", map[string]interface{}{
				"section": string(intent.Section),
				"action":  intent.Action,
			})
			return intent
		}
	}
	return models.Fallback()
}

// ==========================
// 1. Navigation
// ==========================

func (e *Extractor) matchNavigation(text string, _ time.Time) *models.Intent {
	for _, nav := range navigationKeywords {
		if containsAny(text, nav.phrases) {
			return models.NewIntent(models.Section(nav.section), models.ActionOpenMenu)
		}
	}
	return nil
}

// ==========================
// 2. Transaction Detection
// ==========================

func (e *Extractor) matchTransaction(text string, now time.Time) *models.Intent {
	hasManual := containsAny(text, manualEntryKeywords)
	hasIncome := containsAny(text, incomeKeywords)
	hasExpense := containsAny(text, expenseKeywords)

	// strip structured fragments so the amount regex cannot eat them
	dateMatch := dateRe.FindString(text)
	working := dateRe.ReplaceAllString(text, " ")
	timeMatch := timeRe.FindString(working)
	working = timeRe.ReplaceAllString(working, " ")
	if m := cardHintRe.FindString(working); m != "" {
		working = strings.Replace(working, m, " ", 1)
	}
	if m := balanceAmtRe.FindString(working); m != "" {
		working = strings.Replace(working, m, " ", 1)
	}

	amount := parseAmount(amountRe.FindString(working))

	// the bare menu button carries nothing to seed: a blank session
	if hasManual && !hasIncome && !hasExpense && amount == nil {
		return models.NewIntent(models.SectionFinance, models.ActionAddTransaction)
	}

	// a transaction needs a menu phrase, a type keyword or a parsed amount
	if !hasManual && !hasIncome && !hasExpense && amount == nil {
		return nil
	}
	// bare numbers next to balance/card talk are not transactions
	if amount == nil && (containsAny(text, balanceKeywords) || containsAny(text, listCardKeywords)) {
		return nil
	}

	intent := models.NewIntent(models.SectionFinance, models.ActionAddTransaction)
	intent.Amount = amount

	switch {
	case hasExpense: // expense wins when both keyword sets appear
		txType := models.TypeExpense
		intent.Type = &txType
	case hasIncome:
		txType := models.TypeIncome
		intent.Type = &txType
	}

	if currency := detectCurrency(text); currency != nil {
		intent.Currency = currency
	}

	date := canonicalDateOrDefault(dateMatch, now)
	intent.Date = &date

	if timeMatch != "" {
		t := normalizeClock(timeMatch)
		intent.Time = &t
	}

	if m := cardHintRe.FindStringSubmatch(text); m != nil {
		intent.CardHint = &m[1]
	}
	if m := balanceAmtRe.FindStringSubmatch(text); m != nil {
		if balance := parseAmount(m[1]); balance != nil {
			intent.Balance = balance
		}
	}
	if m := partyRe.FindStringSubmatch(text); m != nil {
		intent.Party = &m[1]
	}

	return intent
}

func (e *Extractor) matchBalanceQuery(text string, _ time.Time) *models.Intent {
	if !containsAny(text, balanceKeywords) {
		return nil
	}
	intent := models.NewIntent(models.SectionFinance, models.ActionCheckBalance)
	if m := cardHintRe.FindStringSubmatch(text); m != nil {
		intent.CardHint = &m[1]
	}
	return intent
}

// ==========================
// 3. Reports
// ==========================

func (e *Extractor) matchReport(text string, now time.Time) *models.Intent {
	if m := rangeRe.FindStringSubmatch(text); m != nil {
		intent := models.NewIntent(models.SectionFinance, models.ActionShowReport)
		start := canonicalDateOrDefault(m[1], now)
		end := canonicalDateOrDefault(m[2], now)
		intent.RangeStart = &start
		intent.RangeEnd = &end
		return intent
	}

	if containsAny(text, reportKeywords) {
		// no explicit range: current month
		return models.NewIntent(models.SectionFinance, models.ActionShowReport)
	}
	return nil
}

// ==========================
// 4. Cards and Categories
// ==========================

func (e *Extractor) matchCards(text string, _ time.Time) *models.Intent {
	switch {
	case containsAny(text, addCardKeywords):
		return models.NewIntent(models.SectionFinance, models.ActionAddCard)
	case containsAny(text, deleteCardKeywords):
		intent := models.NewIntent(models.SectionFinance, models.ActionDeleteCard)
		if m := cardHintRe.FindStringSubmatch(text); m != nil {
			intent.CardHint = &m[1]
		}
		return intent
	case containsAny(text, listCardKeywords):
		return models.NewIntent(models.SectionFinance, models.ActionListCards)
	}
	return nil
}

func (e *Extractor) matchCategories(text string, _ time.Time) *models.Intent {
	switch {
	case containsAny(text, addCategoryKeywords):
		return models.NewIntent(models.SectionFinance, models.ActionAddCategory)
	case containsAny(text, listCategoryKeywords):
		return models.NewIntent(models.SectionFinance, models.ActionListCategories)
	}
	return nil
}

// ==========================
// 5. Planning
// ==========================

func (e *Extractor) matchPlanning(text string, now time.Time) *models.Intent {
	switch {
	case containsAny(text, planTodayKeywords):
		return models.NewIntent(models.SectionPlanning, models.ActionViewToday)
	case containsAny(text, planWeekKeywords):
		return models.NewIntent(models.SectionPlanning, models.ActionViewWeek)
	}

	if kw := firstMatch(text, markDoneKeywords); kw != "" {
		intent := models.NewIntent(models.SectionPlanning, models.ActionMarkDone)
		if title := remainderTitle(text, kw); title != "" {
			intent.Title = &title
		}
		return intent
	}
	if kw := firstMatch(text, deletePlanKeywords); kw != "" {
		intent := models.NewIntent(models.SectionPlanning, models.ActionDeletePlan)
		if title := remainderTitle(text, kw); title != "" {
			intent.Title = &title
		}
		return intent
	}

	// generic task heuristic: message reads like something to schedule
	if containsAny(text, taskKeywords) {
		intent := models.NewIntent(models.SectionPlanning, models.ActionAddPlan)
		title := strings.TrimSpace(text)
		intent.Title = &title

		date := canonicalDateOrDefault(dateRe.FindString(text), now)
		intent.Date = &date
		if m := timeRe.FindString(text); m != "" {
			t := normalizeClock(m)
			intent.Time = &t
		}
		return intent
	}
	return nil
}

// ==========================
// 6. Settings and Admin
// ==========================

func (e *Extractor) matchSettings(text string, _ time.Time) *models.Intent {
	switch {
	case containsAny(text, languageKeywords):
		return models.NewIntent(models.SectionSettings, models.ActionSetLanguage)
	case containsAny(text, currencyKeywords):
		return models.NewIntent(models.SectionSettings, models.ActionSetCurrency)
	case containsAny(text, calendarKeywords):
		return models.NewIntent(models.SectionSettings, models.ActionSetCalendar)
	}
	return nil
}

// matchMaintenance routes the help-menu data wipe and its confirmation
// phrase. Confirmation is checked first so it never re-triggers the
// warning prompt.
func (e *Extractor) matchMaintenance(text string, _ time.Time) *models.Intent {
	switch {
	case containsAny(text, confirmClearKeywords):
		return models.NewIntent(models.SectionHelp, models.ActionClearDataConfirm)
	case containsAny(text, clearDataKeywords):
		return models.NewIntent(models.SectionHelp, models.ActionClearData)
	}
	return nil
}

func (e *Extractor) matchAdmin(text string, _ time.Time) *models.Intent {
	switch {
	case containsAny(text, adminUserListKeywords):
		return models.NewIntent(models.SectionAdmin, models.ActionListUsers)
	case containsAny(text, adminStatsKeywords):
		return models.NewIntent(models.SectionAdmin, models.ActionUserStats)
	}
	return nil
}

// ==========================
// Helpers
// ==========================

func containsAny(text string, words []string) bool {
	return firstMatch(text, words) != ""
}

func firstMatch(text string, words []string) string {
	for _, w := range words {
		if strings.Contains(text, w) {
			return w
		}
	}
	return ""
}

func detectCurrency(text string) *models.Currency {
	if containsAny(text, tomanWords) {
		c := models.CurrencyToman
		return &c
	}
	if containsAny(text, dollarWords) {
		c := models.CurrencyDollar
		return &c
	}
	return nil
}

// parseAmount folds separators and parses a positive decimal. Returns nil
// when the fragment is empty or not a usable amount.
func parseAmount(fragment string) *decimal.Decimal {
	cleaned := textnorm.StripSeparators(strings.TrimSpace(fragment))
	if cleaned == "" {
		return nil
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil || !amount.IsPositive() {
		return nil
	}
	return &amount
}

// canonicalDateOrDefault converts a matched YYYY/MM/DD fragment to the
// canonical form, defaulting to the current date. Years below 1700 are
// read as Jalali.
func canonicalDateOrDefault(fragment string, now time.Time) string {
	if fragment == "" {
		return calendar.Today(now)
	}

	system := models.CalendarGregorian
	if strings.HasPrefix(fragment, "1") && fragment[1] < '7' {
		system = models.CalendarJalali
	}

	canonical, err := calendar.ParseInput(system, fragment)
	if err != nil {
		return calendar.Today(now)
	}
	return canonical
}

func normalizeClock(fragment string) string {
	m := timeRe.FindStringSubmatch(fragment)
	if m == nil {
		return fragment
	}
	hour := m[1]
	if len(hour) == 1 {
		hour = "0" + hour
	}
	return hour + ":" + m[2]
}

// remainderTitle strips the trigger keyword and returns what is left as a
// plan title.
func remainderTitle(text, keyword string) string {
	rest := strings.Replace(text, keyword, " ", 1)
	return strings.TrimSpace(strings.Trim(rest, ".,!؟?،؛"))
}
