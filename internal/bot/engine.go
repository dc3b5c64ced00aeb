// internal/bot/engine.go
package bot

import (
	"context"
	"sync"
	"time"

	"finbot/internal/common/errors"
	"finbot/internal/common/logger"
	"finbot/internal/common/observability"
	"finbot/internal/nlu"
	"finbot/internal/session"
	"finbot/internal/store"
)

// Engine is the message loop: poll, understand, act. Messages from the
// same user are handled strictly in order; different users run in
// parallel.
type Engine struct {
	gateway  Gateway
	resolver *nlu.Resolver
	sessions *session.Manager
	store    store.Store
	router   *Router
	handler  *errors.ErrorHandler
	obs      *observability.Observability
	logger   logger.Logger

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

func NewEngine(gw Gateway, resolver *nlu.Resolver, sessions *session.Manager, st store.Store, router *Router, obs *observability.Observability, log logger.Logger) *Engine {
	return &Engine{
		gateway:   gw,
		resolver:  resolver,
		sessions:  sessions,
		store:     st,
		router:    router,
		handler:   errors.NewErrorHandler(log),
		obs:       obs,
		logger: log.With(map[string]interface{}{
			"component": "engine",
		}),
		userLocks: make(map[int64]*sync.Mutex),
	}
}

// Run polls for updates until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started", nil)
	offset := 0

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping", nil)
			return ctx.Err()
		default:
		}

		updates, err := e.gateway.Poll(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.WithError(err).Warn("poll failed, backing off", nil)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Text == "" {
				continue
			}

			go e.handleUpdate(ctx, update)
		}
	}
}

func (e *Engine) handleUpdate(ctx context.Context, update Update) {
	lock := e.userLock(update.UserID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	status := "ok"
	if err := e.process(ctx, update); err != nil {
		status = "error"
		e.logger.WithError(err).Error("message handling failed", map[string]interface{}{
			"userId": update.UserID,
		})
	}
	if e.obs != nil {
		e.obs.RecordMessageProcessed(ctx, status)
		e.obs.RecordMessageDuration(ctx, time.Since(start), status)
	}
}

func (e *Engine) process(ctx context.Context, update Update) error {
	language := update.Language
	if language == "" {
		language = "fa"
	}
	if err := e.store.EnsureUser(ctx, update.UserID, language); err != nil {
		return err
	}

	// an open session consumes the message before any resolution
	if e.sessions.Active(update.UserID) {
		reply := e.sessions.HandleAnswer(ctx, update.UserID, update.Text)
		return e.sendSessionReply(ctx, update, reply)
	}

	intent := e.resolver.Resolve(ctx, update.Text, time.Now())
	req := &Request{
		UserID: update.UserID,
		ChatID: update.ChatID,
		Text:   update.Text,
		Intent: intent,
	}

	if err := e.router.Dispatch(ctx, req); err != nil {
		return e.apologize(ctx, update, err)
	}
	return nil
}

func (e *Engine) sendSessionReply(ctx context.Context, update Update, reply *session.Reply) error {
	for _, id := range reply.CleanupIDs {
		if err := e.gateway.DeleteMessage(ctx, update.ChatID, id); err != nil {
			e.logger.WithError(err).Debug("prompt cleanup failed", nil)
		}
	}

	msgID, err := e.gateway.SendChoices(ctx, update.ChatID, reply.Text, reply.Options)
	if err != nil {
		return err
	}
	if !reply.Done {
		e.sessions.TrackPrompt(update.UserID, msgID)
	}
	return nil
}

// apologize maps a handler error to a user-facing message; the loop keeps
// running whatever happened.
func (e *Engine) apologize(ctx context.Context, update Update, err error) error {
	outcome := e.handler.Handle(update.UserID, err)

	var text string
	switch outcome {
	case errors.OutcomeReprompt:
		text = "ورودی نامعتبر بود. دوباره تلاش کنید."
	case errors.OutcomeAbort:
		text = "این مورد پیدا نشد یا متعلق به شما نیست."
	case errors.OutcomeRetry:
		text = "مشکلی موقتی پیش آمد. چند لحظه دیگر دوباره امتحان کنید."
	default:
		text = "متاسفم، مشکلی پیش آمد."
	}

	_, sendErr := e.gateway.SendText(ctx, update.ChatID, text)
	return sendErr
}

func (e *Engine) userLock(userID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}
