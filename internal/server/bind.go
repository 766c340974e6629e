package server

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/wrenchworks/liftline/internal/fault"
)

// bindJSON decodes an optional JSON request body. An empty body leaves the
// target zero-valued; callers validate required fields themselves.
func bindJSON(c *gin.Context, target any) error {
	err := c.ShouldBindJSON(target)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fault.InvalidArgumentf("server: bad request body: %v", err)
}
