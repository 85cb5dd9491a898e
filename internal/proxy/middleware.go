package proxy

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("request_id", "req-"+uuid.NewString())
		c.Set("start_time", time.Now())
		c.Next()
	}
}

// recoveryEnvelope 兜底：任何未处理的panic都转换为统一错误封装，
// 不让异常逃出流水线
func (s *Server) recoveryEnvelope() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Panic while processing request", fmt.Errorf("%v", r))
				sendError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()
		c.Next()
	}
}
