package rules

// Keyword tables for the rule-based extractor. Matching happens on
// digit-folded, lower-cased text, so English entries are lower case.

// navigationKeywords map menu phrases to a target section. Navigation has
// the highest priority and short-circuits the rest of the pipeline.
var navigationKeywords = []struct {
	section string
	phrases []string
}{
	{"finance", []string{"منوی مالی", "بخش مالی", "مدیریت مالی", "حسابداری", "finance menu", "money menu"}},
	{"planning", []string{"منوی برنامه", "برنامه ریزی", "برنامه‌ریزی", "planning menu", "planner"}},
	{"settings", []string{"تنظیمات", "settings"}},
	{"help", []string{"راهنما", "کمک", "help"}},
	{"main", []string{"منوی اصلی", "بازگشت", "برگرد", "main menu", "/start", "start over"}},
}

// manualEntryKeywords match the finance-menu button and its variants. A
// hit with no amount or type keyword opens a blank session.
var manualEntryKeywords = []string{
	"ثبت تراکنش", "افزودن تراکنش", "تراکنش جدید", "add transaction", "new transaction", "record transaction",
}

var incomeKeywords = []string{
	"حقوق", "درآمد", "دریافت کردم", "گرفتم", "واریز شد", "پاداش",
	"income", "salary", "received", "earned", "deposit",
}

var expenseKeywords = []string{
	"خریدم", "خرید", "دادم", "پرداخت", "هزینه", "خرج", "اجاره",
	"expense", "spent", "paid", "bought", "rent", "cost",
}

var reportKeywords = []string{
	"گزارش", "خلاصه", "report", "summary",
}

var balanceKeywords = []string{
	"موجودی", "مانده حساب", "balance",
}

var addCardKeywords = []string{
	"کارت جدید", "افزودن کارت", "اضافه کردن کارت", "منبع جدید", "add card", "new card", "add source",
}

var deleteCardKeywords = []string{
	"حذف کارت", "پاک کردن کارت", "حذف منبع", "delete card", "remove card", "delete source",
}

var listCardKeywords = []string{
	"کارت ها", "کارت‌ها", "لیست کارت", "منابع من", "my cards", "list cards", "my sources",
}

var addCategoryKeywords = []string{
	"دسته جدید", "دسته بندی جدید", "افزودن دسته", "add category", "new category",
}

var listCategoryKeywords = []string{
	"دسته ها", "دسته‌ها", "لیست دسته", "دسته بندی ها", "categories", "list categories",
}

var planTodayKeywords = []string{
	"برنامه امروز", "کارهای امروز", "امروز چه", "today's plans", "plans today", "today plans",
}

var planWeekKeywords = []string{
	"برنامه هفته", "کارهای هفته", "این هفته", "this week", "week plans",
}

var markDoneKeywords = []string{
	"انجام شد", "انجام دادم", "تمام شد", "done with", "finished", "completed",
}

var deletePlanKeywords = []string{
	"حذف برنامه", "لغو برنامه", "پاک کن برنامه", "delete plan", "cancel plan", "remove plan",
}

// taskKeywords flag a message as a probable new plan when nothing more
// specific matched.
var taskKeywords = []string{
	"یادآوری", "یادم بنداز", "قرار", "جلسه", "باید برم", "باید بروم",
	"remind", "reminder", "meeting", "appointment", "schedule",
}

// The settings tables include the bare values offered as choice buttons,
// so a reply like "تومان" still routes to the right handler.
var languageKeywords = []string{
	"زبان", "تغییر زبان", "language", "change language",
	"فارسی", "انگلیسی", "persian", "english",
}

var currencyKeywords = []string{
	"واحد پول", "ارز پیش فرض", "تغییر ارز", "currency", "change currency",
	"تومان", "تومن", "دلار", "toman", "dollar",
}

var calendarKeywords = []string{
	"تقویم", "تغییر تقویم", "calendar", "change calendar",
	"شمسی", "میلادی", "جلالی", "jalali", "gregorian",
}

var clearDataKeywords = []string{
	"پاک کردن اطلاعات", "حذف اطلاعات من", "حذف همه اطلاعات", "clear my data", "delete my data",
}

var confirmClearKeywords = []string{
	"بله، پاک کن", "بله پاک کن", "yes, wipe my data",
}

var adminUserListKeywords = []string{
	"لیست کاربران", "کاربران ربات", "user list", "list users", "all users",
}

var adminStatsKeywords = []string{
	"آمار کاربر", "آمار استفاده", "usage stats", "user stats", "statistics",
}

var tomanWords = []string{"تومان", "تومن", "toman"}
var dollarWords = []string{"دلار", "dollar", "usd"}
