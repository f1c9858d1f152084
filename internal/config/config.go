package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	DeepSeek DeepSeekConfig `yaml:"deepseek"`
	Chatbot  ChatbotConfig  `yaml:"chatbot"`
	Contact  ContactConfig  `yaml:"contact"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Name           string   `yaml:"name"`
	AllowedOrigins []string `yaml:"allowedOrigins"` // 为空时允许任意来源
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DeepSeekConfig 对话补全接口配置，APIKey 为空时助手只使用本地模板回复
type DeepSeekConfig struct {
	APIKey         string        `yaml:"apiKey"`
	APIURL         string        `yaml:"apiUrl"`
	Model          string        `yaml:"model"`
	MaxTokens      int           `yaml:"maxTokens"`
	Temperature    float64       `yaml:"temperature"`
	MaxRetries     int           `yaml:"maxRetries"`
	RetryBaseDelay time.Duration `yaml:"retryBaseDelay"`
}

// ChatbotConfig 会话配置
type ChatbotConfig struct {
	HistoryWindow int           `yaml:"historyWindow"`
	RateLimit     int           `yaml:"rateLimit"`
	RateWindow    time.Duration `yaml:"rateWindow"`
	SessionTTL    time.Duration `yaml:"sessionTtl"`
	ProfilePath   string        `yaml:"profilePath"`
}

// ContactConfig 联系表单配置
type ContactConfig struct {
	Store       string  `yaml:"store"` // sqlite, redis
	SQLitePath  string  `yaml:"sqlitePath"`
	SubmitRate  float64 `yaml:"submitRate"` // 每秒允许的提交数
	SubmitBurst int     `yaml:"submitBurst"`
	AdminToken  string  `yaml:"adminToken"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// 默认值
const (
	DefaultAPIURL         = "https://api.deepseek.com/v1/chat/completions"
	DefaultModel          = "deepseek-chat"
	DefaultMaxTokens      = 1000
	DefaultTemperature    = 0.7
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = time.Second
	DefaultHistoryWindow  = 6
	DefaultRateLimit      = 20
	DefaultRateWindow     = time.Minute
	DefaultSessionTTL     = 30 * time.Minute
)

// LoadConfig 加载配置文件，path 为空时只使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	// 0 是合法取值的字段在解析前填默认值，文件中写了才覆盖
	cfg := Config{
		DeepSeek: DeepSeekConfig{
			Temperature: DefaultTemperature,
			MaxRetries:  DefaultMaxRetries,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return &cfg, nil
}

// applyEnv 环境变量覆盖（密钥不写入配置文件）
func (c *Config) applyEnv() {
	c.DeepSeek.APIKey = getEnv("DEEPSEEK_API_KEY", c.DeepSeek.APIKey)
	c.DeepSeek.APIURL = getEnv("DEEPSEEK_API_URL", c.DeepSeek.APIURL)
	c.DeepSeek.Model = getEnv("DEEPSEEK_MODEL", c.DeepSeek.Model)
	c.Contact.AdminToken = getEnv("ADMIN_TOKEN", c.Contact.AdminToken)
	c.Contact.Store = getEnv("CONTACT_STORE", c.Contact.Store)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Name == "" {
		c.Server.Name = "portfolio-assistant"
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.DeepSeek.APIURL == "" {
		c.DeepSeek.APIURL = DefaultAPIURL
	}
	if c.DeepSeek.Model == "" {
		c.DeepSeek.Model = DefaultModel
	}
	if c.DeepSeek.MaxTokens == 0 {
		c.DeepSeek.MaxTokens = DefaultMaxTokens
	}
	if c.DeepSeek.RetryBaseDelay == 0 {
		c.DeepSeek.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.Chatbot.HistoryWindow == 0 {
		c.Chatbot.HistoryWindow = DefaultHistoryWindow
	}
	if c.Chatbot.RateLimit == 0 {
		c.Chatbot.RateLimit = DefaultRateLimit
	}
	if c.Chatbot.RateWindow == 0 {
		c.Chatbot.RateWindow = DefaultRateWindow
	}
	if c.Chatbot.SessionTTL == 0 {
		c.Chatbot.SessionTTL = DefaultSessionTTL
	}
	if c.Contact.Store == "" {
		c.Contact.Store = "sqlite"
	}
	if c.Contact.SQLitePath == "" {
		c.Contact.SQLitePath = "./data/contact.db"
	}
	if c.Contact.SubmitRate == 0 {
		c.Contact.SubmitRate = 0.2
	}
	if c.Contact.SubmitBurst == 0 {
		c.Contact.SubmitBurst = 3
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 超出范围: %d", c.Server.Port)
	}
	if c.DeepSeek.MaxRetries < 0 {
		return errors.New("deepseek.maxRetries 不能为负数")
	}
	if c.DeepSeek.Temperature < 0 || c.DeepSeek.Temperature > 2 {
		return fmt.Errorf("deepseek.temperature 超出范围: %v", c.DeepSeek.Temperature)
	}
	if c.Chatbot.HistoryWindow < 0 {
		return errors.New("chatbot.historyWindow 不能为负数")
	}
	if c.Chatbot.RateLimit < 0 {
		return errors.New("chatbot.rateLimit 不能为负数")
	}
	switch c.Contact.Store {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("contact.store 不支持: %s", c.Contact.Store)
	}
	return nil
}

// Configured 是否配置了补全接口密钥
func (c DeepSeekConfig) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
