package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/models"
)

func TestParseInput_Gregorian(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"slash format", "2025/03/09", "2025-03-09", false},
		{"dash format", "2025-03-09", "2025-03-09", false},
		{"single digit parts", "2025/3/9", "2025-03-09", false},
		{"persian digits", "۲۰۲۵/۰۳/۰۹", "2025-03-09", false},
		{"invalid day", "2025/02/30", "", true},
		{"not a date", "tomorrow", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInput(models.CalendarGregorian, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseInput_Jalali(t *testing.T) {
	// 1403/01/01 is 2024-03-20
	got, err := ParseInput(models.CalendarJalali, "1403/01/01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", got)

	// Persian digits accepted
	got, err = ParseInput(models.CalendarJalali, "۱۴۰۳/۰۱/۰۱")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", got)

	// Esfand 30 exists only in leap years; 1402 is not one
	_, err = ParseInput(models.CalendarJalali, "1402/12/30")
	assert.Error(t, err)
}

func TestFormat_RoundTrip(t *testing.T) {
	canonical, err := ParseInput(models.CalendarJalali, "1403/05/15")
	require.NoError(t, err)

	display, err := Format(models.CalendarJalali, canonical)
	require.NoError(t, err)
	assert.Equal(t, "1403/05/15", display)
}

func TestFormat_Gregorian(t *testing.T) {
	display, err := Format(models.CalendarGregorian, "2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, "2025/03/09", display)

	_, err = Format(models.CalendarGregorian, "garbage")
	assert.Error(t, err)
}

func TestMonthRange(t *testing.T) {
	now := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)

	start, end := MonthRange(models.CalendarGregorian, now)
	assert.Equal(t, "2025-03-01", start)
	assert.Equal(t, "2025-03-09", end)

	// 2025-03-09 falls in Esfand 1403; the jalali month starts 2025-02-19
	start, end = MonthRange(models.CalendarJalali, now)
	assert.Equal(t, "2025-02-19", start)
	assert.Equal(t, "2025-03-09", end)
}

func TestWeekRange(t *testing.T) {
	now := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	start, end := WeekRange(now)
	assert.Equal(t, "2025-03-09", start)
	assert.Equal(t, "2025-03-15", end)
}
