package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Store 持有当前配置快照。
// 读路径走 atomic.Pointer，任意并发读都不会被写路径阻塞；
// Reload/Replace 通过互斥锁串行化，快照整体替换，读者不会看到撕裂状态。
type Store struct {
	current atomic.Pointer[Config]
	mu      sync.Mutex // 串行化 Reload/Replace 的落盘与交换
	path    string
}

// NewStore 创建配置存储并完成首次加载。
// 配置文件缺失时落盘默认配置，解析失败则返回错误（此时尚无旧快照可保）。
func NewStore(path string) (*Store, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path}
	s.current.Store(cfg)
	return s, nil
}

// Get 返回当前快照。调用方必须按只读处理，修改需 Clone 后 Replace。
func (s *Store) Get() *Config {
	return s.current.Load()
}

// Path 返回配置文件路径
func (s *Store) Path() string {
	return s.path
}

// Reload 重新读取配置文件。解析失败时保留上一份快照并返回错误，
// 网关在坏配置落盘后仍按最后一份好配置继续工作。
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := LoadConfig(s.path)
	if err != nil {
		return fmt.Errorf("config reload failed, keeping previous snapshot: %v", err)
	}
	s.current.Store(cfg)
	return nil
}

// Replace 校验并持久化新快照，成功后切换为当前快照。
func (s *Store) Replace(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("invalid argument: config snapshot cannot be nil")
	}
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := SaveConfig(cfg, s.path); err != nil {
		return err
	}
	s.current.Store(cfg)
	return nil
}
