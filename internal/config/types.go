package config

// ChannelStatus 渠道状态取值
const (
	StatusActive      = "active"
	StatusInactive    = "inactive"
	StatusMaintenance = "maintenance"
)

// ServerConfig 网关服务配置
type ServerConfig struct {
	Listen         string `yaml:"listen" json:"listen"`
	Timeout        int    `yaml:"timeout" json:"timeout"` // 上游请求超时（秒）
	MaxConnections int    `yaml:"max_connections" json:"max_connections"`
	RuleEngine     string `yaml:"rule_engine,omitempty" json:"rule_engine,omitempty"` // "govaluate" | "starlark"
}

// LogConfig 日志配置
type LogConfig struct {
	Level     string `yaml:"level" json:"level"`
	Directory string `yaml:"directory" json:"directory"` // 请求日志（SQLite）存放目录
}

// ChannelConfig 渠道（上游AI服务商）配置
type ChannelConfig struct {
	Name          string            `yaml:"name" json:"name"`
	Type          string            `yaml:"type" json:"type"` // 服务商类型标记，仅作展示用
	Endpoint      string            `yaml:"endpoint" json:"endpoint"`
	APIKey        string            `yaml:"api_key" json:"api_key"`
	PricePerToken float64           `yaml:"price_per_token" json:"price_per_token"`
	DailyLimit    int64             `yaml:"daily_limit" json:"daily_limit"`
	Priority      int               `yaml:"priority" json:"priority"` // 数字越小优先级越高
	Status        string            `yaml:"status" json:"status"`
	ModelMapping  map[string]string `yaml:"model_mapping,omitempty" json:"model_mapping,omitempty"` // 客户端模型名 -> 上游模型名
}

// RuleConfig 路由规则配置
type RuleConfig struct {
	Name       string `yaml:"name" json:"name"`
	Channel    string `yaml:"channel" json:"channel"`       // 命中后选择的渠道名
	Expression string `yaml:"expression" json:"expression"` // 布尔表达式
	Priority   int    `yaml:"priority" json:"priority"`     // 数字越小越先评估
}

// JWTConfig 管理接口JWT配置
type JWTConfig struct {
	Secret        string `yaml:"secret" json:"secret"`
	Issuer        string `yaml:"issuer" json:"issuer"`
	Audience      string `yaml:"audience" json:"audience"`
	ExpiryMinutes int    `yaml:"expiry_minutes" json:"expiry_minutes"`
}

// AuthConfig 认证配置：网关API密钥与管理侧JWT
type AuthConfig struct {
	JWT     JWTConfig         `yaml:"jwt" json:"jwt"`
	APIKeys map[string]string `yaml:"api_keys" json:"api_keys"` // name -> secret
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enable            bool `yaml:"enable" json:"enable"`
	RequestsPerMinute int  `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int  `yaml:"burst" json:"burst"`
}

// SecurityConfig 安全相关配置
type SecurityConfig struct {
	Auth      AuthConfig      `yaml:"auth" json:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// AdminConfig 管理API配置
type AdminConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// MonitorConfig 监控配置
type MonitorConfig struct {
	Enable           bool   `yaml:"enable" json:"enable"`
	PrometheusListen string `yaml:"prometheus_listen" json:"prometheus_listen"`
}

// RetryConfig 上游转发重试配置
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts" json:"max_attempts"`
	BackoffBase string `yaml:"backoff_base,omitempty" json:"backoff_base,omitempty"` // 退避基数，延迟 = base * 2^attempt
}

// Config 配置快照。一旦通过 Store 发布即视为只读，
// 修改必须克隆后整体替换。
type Config struct {
	Server   ServerConfig    `yaml:"server" json:"server"`
	Log      LogConfig       `yaml:"log" json:"log"`
	Admin    AdminConfig     `yaml:"admin" json:"admin"`
	Channels []ChannelConfig `yaml:"channels" json:"channels"`
	Rules    []RuleConfig    `yaml:"rules" json:"rules"`
	Security SecurityConfig  `yaml:"security" json:"security"`
	Monitor  MonitorConfig   `yaml:"monitor" json:"monitor"`
	Retry    RetryConfig     `yaml:"retry" json:"retry"`
}

// Clone 深拷贝配置，供写路径在替换快照前修改
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c

	out.Channels = make([]ChannelConfig, len(c.Channels))
	for i, ch := range c.Channels {
		out.Channels[i] = ch
		if ch.ModelMapping != nil {
			m := make(map[string]string, len(ch.ModelMapping))
			for k, v := range ch.ModelMapping {
				m[k] = v
			}
			out.Channels[i].ModelMapping = m
		}
	}

	out.Rules = append([]RuleConfig(nil), c.Rules...)

	if c.Security.Auth.APIKeys != nil {
		keys := make(map[string]string, len(c.Security.Auth.APIKeys))
		for k, v := range c.Security.Auth.APIKeys {
			keys[k] = v
		}
		out.Security.Auth.APIKeys = keys
	}

	return &out
}
