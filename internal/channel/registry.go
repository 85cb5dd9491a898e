// Package channel 管理渠道（上游AI服务商）定义与使用量计数。
// 渠道定义来自配置快照，增删改都通过整体替换快照完成；
// 使用量计数是进程内运行态，独立于配置存在。
package channel

import (
	"fmt"
	"sync"

	"smartaiproxy/internal/config"
)

// Registry 渠道注册表
type Registry struct {
	store *config.Store

	mu    sync.Mutex
	usage map[string]int64 // 渠道名 -> 累计token数
}

// NewRegistry 创建渠道注册表
func NewRegistry(store *config.Store) *Registry {
	return &Registry{
		store: store,
		usage: make(map[string]int64),
	}
}

// List 按快照顺序返回当前全部渠道
func (r *Registry) List() []config.ChannelConfig {
	cfg := r.store.Get()
	return cfg.Channels
}

// GetByName 按名称查找渠道
func (r *Registry) GetByName(name string) (config.ChannelConfig, bool) {
	for _, ch := range r.store.Get().Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return config.ChannelConfig{}, false
}

// AddOrUpdate 新增或更新渠道：同名替换原位置，否则追加，然后整体持久化。
func (r *Registry) AddOrUpdate(ch config.ChannelConfig) error {
	if ch.Name == "" {
		return fmt.Errorf("validation error: channel name is required")
	}

	cfg := r.store.Get().Clone()
	replaced := false
	for i := range cfg.Channels {
		if cfg.Channels[i].Name == ch.Name {
			cfg.Channels[i] = ch
			replaced = true
			break
		}
	}
	if !replaced {
		cfg.Channels = append(cfg.Channels, ch)
	}

	return r.store.Replace(cfg)
}

// Remove 删除渠道。名称不存在时不报错也不触发持久化。
func (r *Registry) Remove(name string) error {
	cfg := r.store.Get().Clone()
	for i := range cfg.Channels {
		if cfg.Channels[i].Name == name {
			cfg.Channels = append(cfg.Channels[:i], cfg.Channels[i+1:]...)
			return r.store.Replace(cfg)
		}
	}
	return nil
}

// UpdateStatus 更新渠道状态。名称不存在时为空操作。
func (r *Registry) UpdateStatus(name, status string) error {
	cfg := r.store.Get().Clone()
	for i := range cfg.Channels {
		if cfg.Channels[i].Name == name {
			cfg.Channels[i].Status = status
			return r.store.Replace(cfg)
		}
	}
	return nil
}

// Usage 返回使用量计数的即时拷贝
func (r *Registry) Usage() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int64, len(r.usage))
	for name, tokens := range r.usage {
		out[name] = tokens
	}
	return out
}

// UsageOf 返回单个渠道的当前使用量，不存在视为0
func (r *Registry) UsageOf(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage[name]
}

// AddUsage 原子累加渠道使用量。delta 可为负，计数不在此处做下限截断，
// 符号由调用方负责；渠道首次出现时从 delta 起计。
func (r *Registry) AddUsage(name string, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage[name] += delta
}

// ResetUsage 清零全部使用量计数（每日定时任务调用，
// 使 day_tokens_used 表示当日用量）
func (r *Registry) ResetUsage() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage = make(map[string]int64)
}
