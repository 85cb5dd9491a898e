package proxy

import (
	"crypto/subtle"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"smartaiproxy/internal/config"
)

// handleProxy 网关请求流水线：认证 → 限流 → 读体 → 选渠道 → 转发。
// 每个阶段失败都以统一错误封装短路返回。
func (s *Server) handleProxy(c *gin.Context) {
	cfg := s.store.Get()

	apiKey, ok := s.authenticate(c, cfg)
	if !ok {
		return
	}

	if !s.limiter.Allow(apiKey) {
		sendError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests")
		return
	}

	body, ok := s.readRequestBody(c)
	if !ok {
		return
	}

	selected := s.selectChannel(c, cfg)
	if selected == nil {
		sendError(c, http.StatusServiceUnavailable, "no_channel_available", "No available channels for routing")
		return
	}

	s.forwardRequest(c, cfg, selected, body)
}

// authenticate 校验网关调用方的API密钥，返回密钥本身供限流按key计数
func (s *Server) authenticate(c *gin.Context, cfg *config.Config) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		sendError(c, http.StatusUnauthorized, "missing_api_key", "Missing API key")
		return "", false
	}

	apiKey := strings.TrimPrefix(authHeader, "Bearer ")
	for _, secret := range cfg.Security.Auth.APIKeys {
		// 常量时间比较，避免按字节短路泄露密钥前缀
		if len(secret) == len(apiKey) && subtle.ConstantTimeCompare([]byte(secret), []byte(apiKey)) == 1 {
			return apiKey, true
		}
	}

	sendError(c, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
	return "", false
}

// readRequestBody 读取请求体。POST/PUT要求JSON内容类型，其余方法无体。
func (s *Server) readRequestBody(c *gin.Context) ([]byte, bool) {
	method := c.Request.Method
	if method != http.MethodPost && method != http.MethodPut {
		return nil, true
	}

	if !strings.Contains(c.ContentType(), "application/json") {
		sendError(c, http.StatusBadRequest, "invalid_content_type", "Content-Type must be application/json")
		return nil, false
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		sendError(c, http.StatusBadRequest, "request_body_error", "Failed to read request body")
		return nil, false
	}
	return body, true
}

// selectChannel 组装规则上下文并调用规则引擎
func (s *Server) selectChannel(c *gin.Context, cfg *config.Config) *config.ChannelConfig {
	ctx := map[string]interface{}{
		"time_of_day":    time.Now().Format("15:04"),
		"model":          modelFromPath(c.Request.URL.Path),
		"request_method": c.Request.Method,
	}

	// 每条规则评估前注入其目标渠道的当日用量与额度
	enrich := func(channelName string) map[string]interface{} {
		extra := map[string]interface{}{
			"day_tokens_used": s.registry.UsageOf(channelName),
			"daily_limit":     int64(0),
		}
		if ch, ok := s.registry.GetByName(channelName); ok {
			extra["daily_limit"] = ch.DailyLimit
		}
		return extra
	}

	return s.engine.Select(cfg.Rules, cfg.Channels, ctx, enrich)
}

// modelFromPath 取路径第二段作为模型名，
// 例如 /v1/chat/completions -> "chat"，/v1/models/gpt-4/x -> "models"
func modelFromPath(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(parts) >= 2 {
		return parts[1]
	}
	return "default"
}
