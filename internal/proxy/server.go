package proxy

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartaiproxy/internal/channel"
	"smartaiproxy/internal/config"
	"smartaiproxy/internal/logger"
	"smartaiproxy/internal/monitor"
	"smartaiproxy/internal/ratelimit"
	"smartaiproxy/internal/rule"
)

// Server 网关服务器：承载 /v1 代理流水线
type Server struct {
	store    *config.Store
	registry *channel.Registry
	engine   *rule.Engine
	limiter  ratelimit.Limiter
	logger   *logger.Logger
	metrics  *monitor.Metrics
	router   *gin.Engine

	// 出站HTTP客户端全局复用，连接池跨请求共享；
	// 单次请求的超时在转发时通过 context 控制
	httpClient *http.Client

	retryAttempts int
	backoffBase   time.Duration
}

// NewServer 创建网关服务器
func NewServer(store *config.Store, registry *channel.Registry, engine *rule.Engine, limiter ratelimit.Limiter, log *logger.Logger, metrics *monitor.Metrics) *Server {
	cfg := store.Get()

	attempts := cfg.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := time.Second
	if cfg.Retry.BackoffBase != "" {
		if d, err := time.ParseDuration(cfg.Retry.BackoffBase); err == nil && d > 0 {
			backoff = d
		} else {
			log.Error("Invalid retry.backoff_base, using default 1s", err)
		}
	}

	s := &Server{
		store:    store,
		registry: registry,
		engine:   engine,
		limiter:  limiter,
		logger:   log,
		metrics:  metrics,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retryAttempts: attempts,
		backoffBase:   backoff,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.recoveryEnvelope())

	apiGroup := s.router.Group("/v1")
	apiGroup.Use(s.requestIDMiddleware())
	{
		apiGroup.Any("/*path", s.handleProxy)
	}
}

// Start 启动网关监听
func (s *Server) Start() error {
	cfg := s.store.Get()
	s.logger.Info(fmt.Sprintf("Starting gateway server on %s", cfg.Server.Listen))
	return s.router.Run(cfg.Server.Listen)
}

// Router 返回底层gin引擎，供管理API挂载和测试使用
func (s *Server) Router() *gin.Engine {
	return s.router
}
