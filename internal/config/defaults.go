package config

// DefaultConfig 生成默认配置。配置文件缺失时由它保证系统可运行，
// 内容与示例配置文件保持一致。
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:         "0.0.0.0:8080",
			Timeout:        30,
			MaxConnections: 1000,
			RuleEngine:     "govaluate",
		},
		Log: LogConfig{
			Level:     "info",
			Directory: "logs",
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin123",
		},
		Channels: []ChannelConfig{
			{
				Name:          "Free Channel A",
				Type:          "openai",
				Endpoint:      "https://api.openai.com/v1",
				APIKey:        "your-openai-api-key",
				PricePerToken: 0,
				DailyLimit:    10000,
				Priority:      1,
				Status:        StatusActive,
			},
			{
				Name:          "Paid Channel B",
				Type:          "openai",
				Endpoint:      "https://api.openai.com/v1",
				APIKey:        "your-openai-api-key",
				PricePerToken: 0.01,
				DailyLimit:    50000,
				Priority:      2,
				Status:        StatusActive,
			},
		},
		Rules: []RuleConfig{
			{
				Name:       "Free Priority",
				Channel:    "Free Channel A",
				Expression: "day_tokens_used < daily_limit",
				Priority:   1,
			},
			{
				Name:       "Discount Hours",
				Channel:    "Free Channel A",
				Expression: "time_of_day >= '00:00' && time_of_day <= '06:00'",
				Priority:   2,
			},
		},
		Security: SecurityConfig{
			Auth: AuthConfig{
				JWT: JWTConfig{
					Secret:        "your-secret-key-here",
					Issuer:        "SmartAIProxy",
					Audience:      "SmartAIProxy-Client",
					ExpiryMinutes: 60,
				},
				APIKeys: map[string]string{
					"default": "your-api-key-here",
				},
			},
			RateLimit: RateLimitConfig{
				Enable:            false,
				RequestsPerMinute: 60,
				Burst:             10,
			},
		},
		Monitor: MonitorConfig{
			Enable:           true,
			PrometheusListen: "0.0.0.0:9100",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BackoffBase: "1s",
		},
	}
}
