package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config contactform 配置（API 服务与终端表单共用）
// 优先级：默认值 < YAML 文件 < 环境变量 < 命令行参数
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Form  FormConfig  `yaml:"form"`
	Redis RedisConfig `yaml:"redis"`
	MQTT  MQTTConfig  `yaml:"mqtt"`
	Log   struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"` // 终端表单的日志文件
	} `yaml:"log"`
}

// FormConfig 表单提交与跳转配置
type FormConfig struct {
	BaseURL         string `yaml:"base_url"`          // endpoint 为相对路径时使用
	Endpoint        string `yaml:"endpoint"`          // 如 "/api/contact"
	ThankYouURL     string `yaml:"thank_you_url"`     // 错误后跳转目标
	RedirectDelayMs int    `yaml:"redirect_delay_ms"` // 错误后跳转延迟（毫秒）
	ValidationMode  string `yaml:"validation_mode"`   // "onBlur" | "onSubmit"
}

// RedirectDelay returns the configured delay as a duration.
func (f FormConfig) RedirectDelay() time.Duration {
	return time.Duration(f.RedirectDelayMs) * time.Millisecond
}

// RedisConfig 强制错误开关的持久化存储
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQTTConfig 通知事件发布
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

// Default returns the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.Form.BaseURL = "http://localhost:8080"
	cfg.Form.Endpoint = "/api/contact"
	cfg.Form.ThankYouURL = "/thank-you"
	cfg.Form.RedirectDelayMs = 5000
	cfg.Form.ValidationMode = "onBlur"
	cfg.Redis.Addr = "localhost:6379"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.Topic = "contactform/notifications"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Log.File = "contactform-tui.log"
	return cfg
}

// Load builds the config from defaults, the optional YAML file at path, and the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	loadEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse loads the config for a binary: --config (or CONTACTFORM_CONFIG) picks the
// YAML file, then the remaining flags override individual keys.
func Parse(name string, args []string) (*Config, error) {
	pre := pflag.NewFlagSet(name, pflag.ContinueOnError)
	pre.SetOutput(io.Discard)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	path := pre.String("config", getEnv("CONTACTFORM_CONFIG", ""), "")
	_ = pre.Parse(args)

	cfg, err := Load(*path)
	if err != nil {
		return nil, err
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", *path, "YAML config file (env CONTACTFORM_CONFIG)")
	BindFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BindFlags registers a flag per config key, defaulting to the current values.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.HTTP.Addr, "http-addr", cfg.HTTP.Addr, "API listen address")
	fs.StringVar(&cfg.Form.BaseURL, "base-url", cfg.Form.BaseURL, "base URL for a relative endpoint")
	fs.StringVar(&cfg.Form.Endpoint, "endpoint", cfg.Form.Endpoint, "contact submission endpoint")
	fs.StringVar(&cfg.Form.ThankYouURL, "thank-you-url", cfg.Form.ThankYouURL, "redirect target after a failed submission")
	fs.IntVar(&cfg.Form.RedirectDelayMs, "redirect-delay-ms", cfg.Form.RedirectDelayMs, "delay before the error redirect")
	fs.StringVar(&cfg.Form.ValidationMode, "validation-mode", cfg.Form.ValidationMode, "onBlur or onSubmit")
	fs.BoolVar(&cfg.Redis.Enabled, "redis", cfg.Redis.Enabled, "persist the force-error toggle in Redis")
	fs.StringVar(&cfg.Redis.Addr, "redis-addr", cfg.Redis.Addr, "Redis address")
	fs.BoolVar(&cfg.MQTT.Enabled, "mqtt", cfg.MQTT.Enabled, "publish notifications over MQTT")
	fs.StringVar(&cfg.MQTT.Broker, "mqtt-broker", cfg.MQTT.Broker, "MQTT broker URL")
	fs.StringVar(&cfg.MQTT.Topic, "mqtt-topic", cfg.MQTT.Topic, "MQTT notification topic")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn or error")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "json or console")
	fs.StringVar(&cfg.Log.File, "log-file", cfg.Log.File, "log file for the terminal form")
}

func (c *Config) Validate() error {
	if c.Form.Endpoint == "" {
		return fmt.Errorf("config: form endpoint is required")
	}
	if c.Form.RedirectDelayMs <= 0 {
		return fmt.Errorf("config: redirect delay must be positive, got %d", c.Form.RedirectDelayMs)
	}
	switch c.Form.ValidationMode {
	case "onBlur", "onSubmit":
	default:
		return fmt.Errorf("config: unknown validation mode %q", c.Form.ValidationMode)
	}
	return nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)

	cfg.Form.BaseURL = getEnv("CONTACT_BASE_URL", cfg.Form.BaseURL)
	cfg.Form.Endpoint = getEnv("CONTACT_ENDPOINT", cfg.Form.Endpoint)
	cfg.Form.ThankYouURL = getEnv("CONTACT_THANK_YOU_URL", cfg.Form.ThankYouURL)
	cfg.Form.RedirectDelayMs = parseInt(getEnv("CONTACT_REDIRECT_DELAY_MS", ""), cfg.Form.RedirectDelayMs)
	cfg.Form.ValidationMode = getEnv("CONTACT_VALIDATION_MODE", cfg.Form.ValidationMode)

	cfg.Redis.Enabled = parseBool(getEnv("REDIS_ENABLED", ""), cfg.Redis.Enabled)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", ""), cfg.Redis.DB)

	cfg.MQTT.Enabled = parseBool(getEnv("MQTT_ENABLED", ""), cfg.MQTT.Enabled)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", cfg.MQTT.Broker)
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", cfg.MQTT.ClientID)
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", cfg.MQTT.Topic)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	return s == "true"
}
