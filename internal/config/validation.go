package config

import "fmt"

// validateConfig 校验配置的结构性约束。
// 规则引用不存在的渠道不算错误（规则引擎自行跳过），
// 这里只拦截会让网关无法工作的配置。
func validateConfig(cfg *Config) error {
	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = 30
	}
	if cfg.Server.RuleEngine == "" {
		cfg.Server.RuleEngine = "govaluate"
	}

	seen := make(map[string]bool, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channel %d: name is required", i)
		}
		if seen[ch.Name] {
			return fmt.Errorf("channel %d: duplicate name '%s'", i, ch.Name)
		}
		seen[ch.Name] = true
		if ch.Endpoint == "" {
			return fmt.Errorf("channel '%s': endpoint is required", ch.Name)
		}
	}

	for i, r := range cfg.Rules {
		if r.Name == "" {
			return fmt.Errorf("rule %d: name is required", i)
		}
		if r.Expression == "" {
			return fmt.Errorf("rule '%s': expression is required", r.Name)
		}
	}

	return nil
}
