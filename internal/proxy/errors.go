package proxy

import (
	"github.com/gin-gonic/gin"
)

// ErrorInfo 统一错误封装的载荷
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorResponse 所有失败路径返回的统一JSON结构
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// errorTypeFromStatus 把HTTP状态码映射为OpenAI风格的错误类别
func errorTypeFromStatus(statusCode int) string {
	switch statusCode {
	case 400:
		return "invalid_request_error"
	case 401:
		return "authentication_error"
	case 404:
		return "not_found_error"
	case 429:
		return "rate_limit_error"
	case 500:
		return "server_error"
	case 502:
		return "bad_gateway"
	case 503:
		return "service_unavailable"
	case 504:
		return "gateway_timeout"
	default:
		return "api_error"
	}
}

// sendError 输出统一错误封装并终止后续处理
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error: ErrorInfo{
			Code:    code,
			Message: message,
			Type:    errorTypeFromStatus(statusCode),
		},
	})
}
