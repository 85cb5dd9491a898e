package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	jsonutil "smartaiproxy/internal/common/json"
	"smartaiproxy/internal/config"
	"smartaiproxy/internal/logger"
)

// forwardRequest 把请求转发到选中渠道并把响应原样回传。
// 仅传输层失败触发重试（指数退避），收到HTTP响应（含4xx/5xx）一律直接转发。
func (s *Server) forwardRequest(c *gin.Context, cfg *config.Config, ch *config.ChannelConfig, body []byte) {
	requestID := c.GetString("request_id")
	startTime := c.MustGet("start_time").(time.Time)

	model := modelFromPath(c.Request.URL.Path)
	targetURL := buildTargetURL(c.Request.URL.Path, ch, model)
	outBody := mapModelInBody(body, ch.ModelMapping)

	timeout := time.Duration(cfg.Server.Timeout) * time.Second

	var resp *http.Response
	var lastErr error
	attempts := 0

	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		attempts = attempt + 1
		if attempt > 0 {
			s.metrics.AddRetry(ch.Name)
			// 指数退避：base * 2^attempt；调用方断开则放弃整个转发
			delay := s.backoffBase * (1 << uint(attempt))
			select {
			case <-time.After(delay):
			case <-c.Request.Context().Done():
				s.finishRequest(c, ch, model, requestID, startTime, http.StatusBadGateway, 0, attempts, c.Request.Context().Err())
				sendError(c, http.StatusBadGateway, "forwarding_error", "Error forwarding request to AI provider")
				return
			}
		}

		resp, lastErr = s.sendUpstream(c, targetURL, ch, outBody, timeout)
		if lastErr == nil {
			break
		}
		s.logger.Warn("Upstream request failed", logrus.Fields{
			"request_id": requestID,
			"channel":    ch.Name,
			"attempt":    attempts,
			"error":      lastErr.Error(),
		})
	}

	if lastErr != nil {
		s.finishRequest(c, ch, model, requestID, startTime, http.StatusBadGateway, 0, attempts, lastErr)
		sendError(c, http.StatusBadGateway, "forwarding_error", "Error forwarding request to AI provider")
		return
	}
	defer resp.Body.Close()

	// 原样回传状态码、响应头与响应体
	for key, values := range resp.Header {
		for _, value := range values {
			c.Writer.Header().Add(key, value)
		}
	}
	c.Status(resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("Failed to read upstream response body", err, logrus.Fields{
			"request_id": requestID,
			"channel":    ch.Name,
		})
	}
	if len(respBody) > 0 {
		if _, err := c.Writer.Write(respBody); err != nil {
			s.logger.Debug("Failed to write response to client", logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			})
		}
	}

	// 使用量记账：粗粒度token估算即可满足规则决策
	tokens := EstimateTokens(respBody)
	s.registry.AddUsage(ch.Name, tokens)
	s.metrics.AddTokens(ch.Name, tokens)

	s.finishRequest(c, ch, model, requestID, startTime, resp.StatusCode, tokens, attempts, nil)
}

// sendUpstream 单次上游请求
func (s *Server) sendUpstream(c *gin.Context, targetURL string, ch *config.ChannelConfig, body []byte, timeout time.Duration) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, c.Request.Method, targetURL, reader)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	// 复制入站请求头，Authorization 换成渠道自己的密钥，Host 交给传输层
	for key, values := range c.Request.Header {
		lower := strings.ToLower(key)
		if lower == "authorization" || lower == "host" {
			continue
		}
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Authorization", "Bearer "+ch.APIKey)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	// cancel 延迟到响应体读完之后；包一层确保触发
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// buildTargetURL 目标URL = 渠道endpoint（去尾斜杠）+ 入站路径去掉/v1前缀；
// 渠道配置了模型映射时在路径中替换模型名
func buildTargetURL(inboundPath string, ch *config.ChannelConfig, model string) string {
	base := strings.TrimRight(ch.Endpoint, "/")
	path := strings.TrimPrefix(inboundPath, "/v1")

	if mapped, ok := ch.ModelMapping[model]; ok && mapped != model {
		path = strings.ReplaceAll(path, "/"+model+"/", "/"+mapped+"/")
	}

	return base + path
}

// mapModelInBody 按渠道映射重写请求体里的model字段。
// 映射不存在或请求体不是JSON对象时原样返回。
func mapModelInBody(body []byte, mapping map[string]string) []byte {
	if len(body) == 0 || len(mapping) == 0 {
		return body
	}

	rewritten, err := jsonutil.RewriteStringField(body, "model", func(value string) (string, bool) {
		mapped, ok := mapping[value]
		return mapped, ok && mapped != value
	})
	if err != nil {
		return body
	}
	return rewritten
}

// finishRequest 请求收尾：指标与请求日志
func (s *Server) finishRequest(c *gin.Context, ch *config.ChannelConfig, model, requestID string, startTime time.Time, statusCode int, tokens int64, attempts int, err error) {
	duration := time.Since(startTime)
	s.metrics.ObserveRequest(ch.Name, fmt.Sprintf("%d", statusCode), duration)

	rec := &logger.RequestRecord{
		Timestamp:  startTime,
		RequestID:  requestID,
		Channel:    ch.Name,
		Model:      model,
		Method:     c.Request.Method,
		Path:       c.Request.URL.Path,
		StatusCode: statusCode,
		DurationMs: duration.Milliseconds(),
		Tokens:     tokens,
		Attempts:   attempts,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	s.logger.LogRequest(rec)
}
