package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/common/logger"
	"finbot/internal/models"
)

func TestRouter_DispatchesToRegisteredHandler(t *testing.T) {
	router := NewRouter(logger.NewTestLogger(t))

	var got *Request
	router.Handle(models.SectionFinance, models.ActionShowReport, func(_ context.Context, req *Request) error {
		got = req
		return nil
	})

	req := &Request{
		UserID: 42,
		Intent: models.NewIntent(models.SectionFinance, models.ActionShowReport),
	}
	err := router.Dispatch(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.UserID)
}

func TestRouter_UnknownIntentGoesToFallback(t *testing.T) {
	router := NewRouter(logger.NewTestLogger(t))

	fallbackHit := false
	router.SetFallback(func(context.Context, *Request) error {
		fallbackHit = true
		return nil
	})

	err := router.Dispatch(context.Background(), &Request{
		Intent: models.NewIntent(models.SectionFinance, "no_such_action"),
	})

	require.NoError(t, err)
	assert.True(t, fallbackHit)
}

func TestRouter_NoFallbackIsSilent(t *testing.T) {
	router := NewRouter(logger.NewTestLogger(t))

	err := router.Dispatch(context.Background(), &Request{
		Intent: models.Fallback(),
	})

	assert.NoError(t, err)
}

func TestParseCardNameAndBalance(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		number      string
		wantName    string
		wantBalance string
	}{
		{
			name:        "full form",
			text:        "افزودن کارت ملت 6104331234567890 500,000",
			number:      "6104331234567890",
			wantName:    "ملت",
			wantBalance: "500000",
		},
		{
			name:        "no balance",
			text:        "کارت جدید پاسارگاد 5022291234567890",
			number:      "5022291234567890",
			wantName:    "پاسارگاد",
			wantBalance: "0",
		},
		{
			name:        "multi word name",
			text:        "add card پول نقد 100000",
			number:      "",
			wantName:    "پول نقد",
			wantBalance: "100000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotName, gotBalance := parseCardNameAndBalance(tt.text, tt.number)
			assert.Equal(t, tt.wantName, gotName)
			assert.Equal(t, tt.wantBalance, gotBalance.String())
		})
	}
}
