package models

import "github.com/shopspring/decimal"

// Section is the top-level area of the assistant an intent targets.
type Section string

const (
	SectionFinance  Section = "finance"
	SectionPlanning Section = "planning"
	SectionSettings Section = "settings"
	SectionHelp     Section = "help"
	SectionAdmin    Section = "admin"
	SectionMain     Section = "main"
	SectionNone     Section = "none"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Currency is the set of supported display currencies.
type Currency string

const (
	CurrencyToman  Currency = "toman"
	CurrencyDollar Currency = "dollar"
)

// CalendarSystem selects the user's display calendar.
type CalendarSystem string

const (
	CalendarJalali    CalendarSystem = "jalali"
	CalendarGregorian CalendarSystem = "gregorian"
)

// Known intent actions.
const (
	ActionFallbackToButtons = "fallback_to_buttons"
	ActionOpenMenu          = "open_menu"

	ActionAddTransaction = "add_transaction"
	ActionShowReport     = "show_report"
	ActionCheckBalance   = "check_balance"
	ActionAddCard        = "add_card_source"
	ActionDeleteCard     = "delete_card_source"
	ActionListCards      = "list_card_sources"
	ActionAddCategory    = "add_category"
	ActionListCategories = "list_categories"

	ActionAddPlan    = "add_plan"
	ActionViewToday  = "view_today"
	ActionViewWeek   = "view_week"
	ActionMarkDone   = "mark_done"
	ActionDeletePlan = "delete_plan"

	ActionSetLanguage = "set_language"
	ActionSetCurrency = "set_currency"
	ActionSetCalendar = "set_calendar"

	ActionListUsers = "list_users"
	ActionUserStats = "user_stats"

	ActionShowHelp         = "show_help"
	ActionClearData        = "clear_user_data"
	ActionClearDataConfirm = "clear_user_data_confirm"
)

// Intent is the structured result of understanding one user utterance.
// Optional fields are pointers: absence and empty are different things.
type Intent struct {
	Section Section `json:"section"`
	Action  string  `json:"action"`

	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Type     *TransactionType `json:"type,omitempty"`
	Category *string          `json:"category,omitempty"`
	Date     *string          `json:"date,omitempty"` // canonical YYYY-MM-DD
	Time     *string          `json:"time,omitempty"` // HH:MM
	Note     *string          `json:"note,omitempty"`
	Currency *Currency        `json:"currency,omitempty"`
	CardHint *string          `json:"card_hint,omitempty"` // last 4 digits
	Balance  *decimal.Decimal `json:"balance,omitempty"`
	Party    *string          `json:"party,omitempty"`
	Title    *string          `json:"title,omitempty"` // plan title

	RangeStart *string `json:"range_start,omitempty"` // canonical YYYY-MM-DD
	RangeEnd   *string `json:"range_end,omitempty"`

	TargetUserID *int64 `json:"target_user_id,omitempty"`
}

// NewIntent returns an intent with only section and action set.
func NewIntent(section Section, action string) *Intent {
	return &Intent{Section: section, Action: action}
}

// Fallback is the default intent when nothing could be understood.
func Fallback() *Intent {
	return NewIntent(SectionMain, ActionFallbackToButtons)
}

// HasAmount reports whether the intent carries a usable positive amount.
func (i *Intent) HasAmount() bool {
	return i.Amount != nil && i.Amount.IsPositive()
}
