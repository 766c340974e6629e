package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wrenchworks/liftline/internal/identity"
)

// Trusted identity headers. The session layer upstream authenticates the
// user and forwards these; the engine only transports and checks them.
const (
	headerActorID   = "X-Actor-Id"
	headerActorRole = "X-Actor-Role"
	headerWorkerID  = "X-Worker-Id"
)

// actorFromHeaders places the request's actor into the request context.
func actorFromHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := identity.Actor{
			ID:       c.GetHeader(headerActorID),
			Role:     c.GetHeader(headerActorRole),
			WorkerID: c.GetHeader(headerWorkerID),
		}
		c.Request = c.Request.WithContext(identity.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		actor := identity.FromContext(c.Request.Context())
		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Str("actor", actor.ID).
			Msg("request")
	}
}
