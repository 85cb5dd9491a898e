// Package admin 提供管理REST API：渠道与规则的增删改查、用量查询、
// 配置查看与热重载。管理接口直接消费渠道注册表与配置存储的读写契约。
package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartaiproxy/internal/channel"
	"smartaiproxy/internal/config"
	"smartaiproxy/internal/logger"
)

// ApiResponse 管理接口统一响应结构
type ApiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// API 管理接口处理器
type API struct {
	store     *config.Store
	registry  *channel.Registry
	logger    *logger.Logger
	startTime time.Time
	version   string
}

// NewAPI 创建管理接口
func NewAPI(store *config.Store, registry *channel.Registry, log *logger.Logger, version string) *API {
	return &API{
		store:     store,
		registry:  registry,
		logger:    log,
		startTime: time.Now(),
		version:   version,
	}
}

// RegisterRoutes 把管理路由挂到给定引擎上
func (a *API) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", a.handleHealthz)
	router.POST("/api/auth/login", a.handleLogin)

	api := router.Group("/api")
	api.Use(a.authMiddleware())
	{
		api.GET("/channels", a.handleListChannels)
		api.POST("/channels", a.handleUpsertChannel)
		api.DELETE("/channels/:name", a.handleRemoveChannel)
		api.PUT("/channels/:name/status", a.handleUpdateChannelStatus)
		api.GET("/rules", a.handleListRules)
		api.POST("/rules", a.handleUpsertRule)
		api.DELETE("/rules/:name", a.handleRemoveRule)
		api.GET("/usage", a.handleUsage)
		api.GET("/logs", a.handleLogs)
		api.GET("/config", a.handleGetConfig)
		api.POST("/config/reload", a.handleReloadConfig)
		api.GET("/health", a.handleHealth)
	}
}

func (a *API) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (a *API) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: "Username and password are required",
		})
		return
	}

	cfg := a.store.Get()
	if req.Username != cfg.Admin.Username || req.Password != cfg.Admin.Password {
		c.JSON(http.StatusUnauthorized, ApiResponse{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	}

	token, expiresIn, err := a.issueToken(req.Username)
	if err != nil {
		a.logger.Error("Failed to issue admin token", err)
		c.JSON(http.StatusInternalServerError, ApiResponse{
			Success: false,
			Message: "Error generating token",
		})
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: "Login successful",
		Data: LoginResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		},
	})
}

func (a *API) handleListChannels(c *gin.Context) {
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: "Channels retrieved successfully",
		Data:    a.registry.List(),
	})
}

func (a *API) handleUpsertChannel(c *gin.Context) {
	var ch config.ChannelConfig
	if err := c.ShouldBindJSON(&ch); err != nil {
		c.JSON(http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid channel payload: %v", err),
		})
		return
	}

	if err := a.registry.AddOrUpdate(ch); err != nil {
		c.JSON(http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: fmt.Sprintf("Channel '%s' added/updated", ch.Name),
	})
}

func (a *API) handleRemoveChannel(c *gin.Context) {
	name := c.Param("name")
	if err := a.registry.Remove(name); err != nil {
		c.JSON(http.StatusInternalServerError, ApiResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: fmt.Sprintf("Channel '%s' removed", name),
	})
}

func (a *API) handleUpdateChannelStatus(c *gin.Context) {
	name := c.Param("name")
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: "Status is required",
		})
		return
	}

	if err := a.registry.UpdateStatus(name, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, ApiResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: fmt.Sprintf("Channel '%s' status updated to '%s'", name, req.Status),
	})
}

func (a *API) handleListRules(c *gin.Context) {
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: "Rules retrieved successfully",
		Data:    a.store.Get().Rules,
	})
}

func (a *API) handleUpsertRule(c *gin.Context) {
	var r config.RuleConfig
	if err := c.ShouldBindJSON(&r); err != nil || r.Name == "" {
		c.JSON(http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: "Invalid rule payload: name is required",
		})
		return
	}

	cfg := a.store.Get().Clone()
	replaced := false
	for i := range cfg.Rules {
		if cfg.Rules[i].Name == r.Name {
			cfg.Rules[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		cfg.Rules = append(cfg.Rules, r)
	}

	if err := a.store.Replace(cfg); err != nil {
		c.JSON(http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: fmt.Sprintf("Rule '%s' added/updated", r.Name),
	})
}

func (a *API) handleRemoveRule(c *gin.Context) {
	name := c.Param("name")
	cfg := a.store.Get().Clone()
	for i := range cfg.Rules {
		if cfg.Rules[i].Name == name {
			cfg.Rules = append(cfg.Rules[:i], cfg.Rules[i+1:]...)
			if err := a.store.Replace(cfg); err != nil {
				c.JSON(http.StatusInternalServerError, ApiResponse{
					Success: false,
					Message: err.Error(),
				})
				return
			}
			break
		}
	}
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: fmt.Sprintf("Rule '%s' removed", name),
	})
}

func (a *API) handleUsage(c *gin.Context) {
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: "Usage retrieved successfully",
		Data:    a.registry.Usage(),
	})
}

func (a *API) handleLogs(c *gin.Context) {
	records, total, err := a.logger.GetRecords(100, 0, c.Query("failed") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, ApiResponse{
			Success: false,
			Message: "Error retrieving request logs",
		})
		return
	}
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: "Logs retrieved successfully",
		Data: gin.H{
			"total":   total,
			"records": records,
		},
	})
}

func (a *API) handleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: "Configuration retrieved successfully",
		Data:    a.store.Get(),
	})
}

func (a *API) handleReloadConfig(c *gin.Context) {
	if err := a.store.Reload(); err != nil {
		c.JSON(http.StatusInternalServerError, ApiResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: "Configuration reloaded successfully",
	})
}

func (a *API) handleHealth(c *gin.Context) {
	uptime := time.Since(a.startTime)
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: "Admin API is running",
		Data: gin.H{
			"status":  "healthy",
			"uptime":  fmt.Sprintf("%dh%dm", int(uptime.Hours()), int(uptime.Minutes())%60),
			"version": a.version,
		},
	})
}
