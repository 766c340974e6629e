package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wrenchworks/liftline/internal/fault"
)

// writeError maps a fault kind to an HTTP status and renders the error body.
// Structured details (e.g. the blocking order behind a lift conflict) pass
// through so clients can act on them.
func (s *api) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"kind": "internal", "message": "internal error"}

	var fe *fault.Error
	if errors.As(err, &fe) {
		status = statusForKind(fe.Kind)
		body = gin.H{"kind": string(fe.Kind), "message": fe.Message}
		if len(fe.Details) > 0 {
			body["details"] = fe.Details
		}
	} else {
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
	}

	c.JSON(status, gin.H{"error": body})
}

func statusForKind(kind fault.Kind) int {
	switch kind {
	case fault.NotFound:
		return http.StatusNotFound
	case fault.InvalidArgument:
		return http.StatusBadRequest
	case fault.Conflict:
		return http.StatusConflict
	case fault.Forbidden:
		return http.StatusForbidden
	case fault.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
