package main

import (
	"context"
	"flag"
	"log"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"smartaiproxy/internal/admin"
	"smartaiproxy/internal/channel"
	"smartaiproxy/internal/config"
	"smartaiproxy/internal/logger"
	"smartaiproxy/internal/monitor"
	"smartaiproxy/internal/proxy"
	"smartaiproxy/internal/ratelimit"
	"smartaiproxy/internal/rule"
)

var version = "1.0.0"

func main() {
	configPath := flag.String("config", "config/smartaiproxy.yaml", "Path to configuration file")
	flag.Parse()

	store, err := config.NewStore(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := store.Get()

	appLogger, err := logger.NewLogger(logger.LogConfig{
		Level:     cfg.Log.Level,
		Directory: cfg.Log.Directory,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	registry := channel.NewRegistry(store)
	engine := rule.NewEngine(rule.NewEvaluator(cfg.Server.RuleEngine), appLogger)

	var limiter ratelimit.Limiter = ratelimit.NewNoopLimiter()
	if cfg.Security.RateLimit.Enable {
		limiter = ratelimit.NewMemoryLimiter(cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	}

	metrics := monitor.NewMetrics()
	if cfg.Monitor.Enable {
		go func() {
			appLogger.Info("Starting metrics server", logrus.Fields{"listen": cfg.Monitor.PrometheusListen})
			if err := metrics.Serve(cfg.Monitor.PrometheusListen); err != nil {
				appLogger.Error("Metrics server stopped", err)
			}
		}()
	}

	// 每日零点清零用量计数，day_tokens_used 始终表示当日用量
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 0 * * *", func() {
		registry.ResetUsage()
		appLogger.Info("Daily channel usage counters reset")
	}); err != nil {
		appLogger.Error("Failed to schedule daily usage reset", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// 配置文件热更新：重载失败保留最后一份好配置
	watcher, err := config.NewWatcher(store, func(err error) {
		if err != nil {
			appLogger.Error("Config hot reload failed", err)
		} else {
			appLogger.Info("Configuration hot reloaded")
		}
	})
	if err != nil {
		appLogger.Error("Failed to start config watcher", err)
	} else {
		go watcher.Watch(context.Background())
	}

	server := proxy.NewServer(store, registry, engine, limiter, appLogger, metrics)
	adminAPI := admin.NewAPI(store, registry, appLogger, version)
	adminAPI.RegisterRoutes(server.Router())

	if err := server.Start(); err != nil {
		log.Fatalf("Gateway server stopped: %v", err)
	}
}
