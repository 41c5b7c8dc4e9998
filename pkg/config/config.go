package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	MySQL        MySQLConfig        `yaml:"mysql"`
	Redis        RedisConfig        `yaml:"redis"`
	Logger       LoggerConfig       `yaml:"logger"`
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	Notification NotificationConfig `yaml:"notification"`
}

// NotificationConfig alert delivery configuration
type NotificationConfig struct {
	FeishuWebhookURL string `yaml:"feishu_webhook_url"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port   int    `yaml:"port"`
	Mode   string `yaml:"mode"`    // debug, release
	APIKey string `yaml:"api_key"` // API key for request authentication (optional, if empty, auth is disabled)
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RedisConfig Redis configuration (task queue introspection; optional)
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// MonitoringConfig collection loop and alerting configuration
type MonitoringConfig struct {
	Interval      int              `yaml:"interval"`       // collection interval (seconds)
	RetentionDays int              `yaml:"retention_days"` // metric retention window (days)
	GPUEnabled    bool             `yaml:"gpu_enabled"`    // probe for a GPU backend at startup
	Thresholds    ThresholdsConfig `yaml:"thresholds"`
}

// ThresholdsConfig alert threshold overrides; zero values fall back to defaults
type ThresholdsConfig struct {
	CPUUsage       float64 `yaml:"cpu_usage"`
	MemoryUsage    float64 `yaml:"memory_usage"`
	DiskUsage      float64 `yaml:"disk_usage"`
	GPUUsage       float64 `yaml:"gpu_usage"`
	GPUMemory      float64 `yaml:"gpu_memory"`
	GPUTemperature float64 `yaml:"gpu_temperature"`
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	applyDefaults(&cfg)
	GlobalConfig = &cfg
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Monitoring.Interval <= 0 {
		cfg.Monitoring.Interval = 5
	}
	if cfg.Monitoring.RetentionDays <= 0 {
		cfg.Monitoring.RetentionDays = 30
	}
}
