package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/common/logger"
	"finbot/internal/models"
	"finbot/internal/session"
)

func newTestHandlers(t *testing.T) (*Handlers, *fakeGateway, *memStore) {
	log := logger.NewTestLogger(t)
	st := newMemStore()
	gw := &fakeGateway{}
	sessions := session.NewManager(st, nil, log)
	return NewHandlers(st, nil, gw, sessions, func(int64) bool { return false }, log), gw, st
}

func TestHandleSetLanguage_ShortCodeMatchesWholeWordsOnly(t *testing.T) {
	h, gw, st := newTestHandlers(t)
	req := &Request{
		UserID: 42,
		ChatID: 42,
		Text:   "make it fancy",
		Intent: models.NewIntent(models.SectionSettings, models.ActionSetLanguage),
	}

	// "fancy" contains the bigram "fa" but is not a language choice
	require.NoError(t, h.handleSetLanguage(context.Background(), req))
	assert.Empty(t, st.languages)
	assert.Equal(t, []string{"فارسی", "English"}, gw.lastMessage().Options)

	req.Text = "fa"
	require.NoError(t, h.handleSetLanguage(context.Background(), req))
	assert.Equal(t, "fa", st.languages[42])
}

func TestHandleSetCurrency_UnrecognizedValueReprompts(t *testing.T) {
	h, gw, st := newTestHandlers(t)
	req := &Request{
		UserID: 42,
		ChatID: 42,
		Text:   "واحد پول",
		Intent: models.NewIntent(models.SectionSettings, models.ActionSetCurrency),
	}

	require.NoError(t, h.handleSetCurrency(context.Background(), req))
	assert.Equal(t, []string{"تومان", "دلار"}, gw.lastMessage().Options)
	assert.Equal(t, models.CurrencyToman, st.settings.Currency)

	req.Text = "دلار"
	require.NoError(t, h.handleSetCurrency(context.Background(), req))
	assert.Equal(t, models.CurrencyDollar, st.settings.Currency)
}

func TestHasToken(t *testing.T) {
	assert.True(t, hasToken("switch to fa please", "fa"))
	assert.False(t, hasToken("make it fancy", "fa"))
	assert.False(t, hasToken("on the sofa", "fa"))
	assert.True(t, hasToken("en", "en"))
	assert.False(t, hasToken("enable something", "en"))
}
