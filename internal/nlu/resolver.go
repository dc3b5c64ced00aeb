// Package nlu resolves free-form user text into structured intents. The
// remote model is tried first; any failure falls through to the rule-based
// extractor, so resolution itself never fails.
package nlu

import (
	"context"
	"time"

	"finbot/internal/common/logger"
	"finbot/internal/common/metrics"
	"finbot/internal/models"
)

// RemoteResolver is the remote understanding client.
type RemoteResolver interface {
	Resolve(ctx context.Context, text string, now time.Time) (*models.Intent, error)
}

// FallbackExtractor is the deterministic rule pipeline.
type FallbackExtractor interface {
	Extract(text string, now time.Time) *models.Intent
}

// Resolver is stateless; it holds no per-user data and is safe for
// concurrent use.
type Resolver struct {
	remote RemoteResolver
	rules  FallbackExtractor
	logger logger.Logger
}

func NewResolver(remote RemoteResolver, rules FallbackExtractor, log logger.Logger) *Resolver {
	return &Resolver{
		remote: remote,
		rules:  rules,
		logger: log.With(map[string]interface{}{
			"component": "resolver",
		}),
	}
}

// Resolve always returns a usable intent.
func (r *Resolver) Resolve(ctx context.Context, text string, now time.Time) *models.Intent {
	start := time.Now()

	if r.remote != nil {
		intent, err := r.remote.Resolve(ctx, text, now)
		if err == nil {
			metrics.IntentsResolved.WithLabelValues("remote", string(intent.Section)).Inc()
			metrics.ResolveDuration.WithLabelValues("remote").Observe(time.Since(start).Seconds())
			return intent
		}
		r.logger.WithError(err).Debug("remote understanding failed, using rules", nil)
	}

	intent := r.rules.Extract(text, now)
	metrics.IntentsResolved.WithLabelValues("rules", string(intent.Section)).Inc()
	metrics.ResolveDuration.WithLabelValues("rules").Observe(time.Since(start).Seconds())
	return intent
}
