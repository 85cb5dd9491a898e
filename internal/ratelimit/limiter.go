// Package ratelimit 定义网关的速率限制协作接口。
// 流水线固定调用 Allow，实现可以从放行占位替换为真实限流而无需改动流水线。
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter 速率限制能力抽象，key 通常是调用方的API密钥
type Limiter interface {
	Allow(key string) bool
}

// NoopLimiter 不限流的占位实现
type NoopLimiter struct{}

// NewNoopLimiter 创建放行占位限流器
func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

// Allow 永远放行
func (l *NoopLimiter) Allow(key string) bool {
	return true
}

// MemoryLimiter 进程内按key限流，每个key一个令牌桶
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewMemoryLimiter 按每分钟请求数与突发额度创建内存限流器
func NewMemoryLimiter(requestsPerMinute, burst int) *MemoryLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}
	return &MemoryLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
	}
}

// Allow 判断该key当前是否放行
func (l *MemoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
