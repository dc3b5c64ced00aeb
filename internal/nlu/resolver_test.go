package nlu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/common/logger"
	"finbot/internal/models"
)

type stubRemote struct {
	intent *models.Intent
	err    error
	calls  int
}

func (s *stubRemote) Resolve(_ context.Context, _ string, _ time.Time) (*models.Intent, error) {
	s.calls++
	return s.intent, s.err
}

type stubRules struct {
	intent *models.Intent
	calls  int
}

func (s *stubRules) Extract(_ string, _ time.Time) *models.Intent {
	s.calls++
	return s.intent
}

var testNow = time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)

func TestResolver_RemoteFirst(t *testing.T) {
	remote := &stubRemote{intent: models.NewIntent(models.SectionFinance, models.ActionShowReport)}
	rules := &stubRules{intent: models.Fallback()}
	resolver := NewResolver(remote, rules, logger.NewTestLogger(t))

	intent := resolver.Resolve(context.Background(), "گزارش", testNow)

	require.NotNil(t, intent)
	assert.Equal(t, models.ActionShowReport, intent.Action)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, 0, rules.calls)
}

func TestResolver_FallsBackOnRemoteError(t *testing.T) {
	remote := &stubRemote{err: errors.New("REMOTE_UNAVAILABLE")}
	rules := &stubRules{intent: models.NewIntent(models.SectionFinance, models.ActionAddTransaction)}
	resolver := NewResolver(remote, rules, logger.NewTestLogger(t))

	intent := resolver.Resolve(context.Background(), "خرید 200 تومان", testNow)

	require.NotNil(t, intent)
	assert.Equal(t, models.ActionAddTransaction, intent.Action)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, 1, rules.calls)
}

func TestResolver_NilRemoteUsesRules(t *testing.T) {
	rules := &stubRules{intent: models.Fallback()}
	resolver := NewResolver(nil, rules, logger.NewTestLogger(t))

	intent := resolver.Resolve(context.Background(), "whatever", testNow)

	require.NotNil(t, intent)
	assert.Equal(t, models.ActionFallbackToButtons, intent.Action)
	assert.Equal(t, 1, rules.calls)
}
