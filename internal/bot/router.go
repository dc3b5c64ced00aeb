// internal/bot/router.go
package bot

import (
	"context"

	"finbot/internal/common/logger"
	"finbot/internal/models"
)

// Request carries everything a handler needs for one message.
type Request struct {
	UserID int64
	ChatID int64
	Text   string
	Intent *models.Intent
}

type HandlerFunc func(ctx context.Context, req *Request) error

type routeKey struct {
	Section models.Section
	Action  string
}

// Router dispatches resolved intents to handlers. Unknown pairs go to the
// fallback handler; dispatch itself never fails the message loop.
type Router struct {
	routes   map[routeKey]HandlerFunc
	fallback HandlerFunc
	logger   logger.Logger
}

func NewRouter(log logger.Logger) *Router {
	return &Router{
		routes: make(map[routeKey]HandlerFunc),
		logger: log.With(map[string]interface{}{
			"component": "router",
		}),
	}
}

func (r *Router) Handle(section models.Section, action string, fn HandlerFunc) {
	r.routes[routeKey{Section: section, Action: action}] = fn
}

func (r *Router) SetFallback(fn HandlerFunc) {
	r.fallback = fn
}

func (r *Router) Dispatch(ctx context.Context, req *Request) error {
	fn, ok := r.routes[routeKey{Section: req.Intent.Section, Action: req.Intent.Action}]
	if !ok {
		r.logger.Debug("no route for intent", map[string]interface{}{
			"section": string(req.Intent.Section),
			"action":  req.Intent.Action,
		})
		fn = r.fallback
	}
	if fn == nil {
		return nil
	}
	return fn(ctx, req)
}
