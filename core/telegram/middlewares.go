package telegram

import (
	"github.com/m3rciful/cemtembot/core/telegram/middleware"
)

// DefaultMiddlewares builds the global middleware chain: panic recovery,
// one receipt log line per update and outbound message counters.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
}
