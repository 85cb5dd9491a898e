// Package monitor 暴露网关的Prometheus指标。
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 网关核心指标集合
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
}

// NewMetrics 创建并注册网关指标
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "smartaiproxy",
				Name:      "requests_total",
				Help:      "Total number of gateway requests by channel and status code",
			},
			[]string{"channel", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "smartaiproxy",
				Name:      "request_duration_seconds",
				Help:      "Gateway request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"channel"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "smartaiproxy",
				Name:      "tokens_total",
				Help:      "Estimated tokens relayed per channel",
			},
			[]string{"channel"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "smartaiproxy",
				Name:      "retries_total",
				Help:      "Upstream forwarding retries per channel",
			},
			[]string{"channel"},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.tokensTotal,
		m.retriesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveRequest 记录一次完成的网关请求
func (m *Metrics) ObserveRequest(channel, status string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(channel, status).Inc()
	m.requestDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// AddTokens 记录渠道消耗的token估算值
func (m *Metrics) AddTokens(channel string, tokens int64) {
	if tokens > 0 {
		m.tokensTotal.WithLabelValues(channel).Add(float64(tokens))
	}
}

// AddRetry 记录一次转发重试
func (m *Metrics) AddRetry(channel string) {
	m.retriesTotal.WithLabelValues(channel).Inc()
}

// Handler 返回 /metrics 的HTTP处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Serve 在独立地址上启动指标服务
func (m *Metrics) Serve(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(listen, mux)
}
