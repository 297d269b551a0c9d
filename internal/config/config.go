package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	DBPath string `mapstructure:"db_path"`

	// Closed operator set, employee id -> sector. Empty means open house
	// (dev mode only).
	AllowedUsers map[string]string `mapstructure:"allowed_users"`

	Transcriber TranscriberConfig `mapstructure:"transcriber"`
	Flights     FlightsConfig     `mapstructure:"flights"`

	// Audio queue bound and overflow policy: "drop_oldest" or "reject".
	QueueSize     int    `mapstructure:"queue_size"`
	QueueOverflow string `mapstructure:"queue_overflow"`

	SessionTTL       time.Duration `mapstructure:"session_ttl"`
	MessageTTL       time.Duration `mapstructure:"message_ttl"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	MessagePurgeHour int           `mapstructure:"message_purge_hour"`
}

type TranscriberConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type FlightsConfig struct {
	URL      string        `mapstructure:"url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("db_path", "handlephone.db")
	v.SetDefault("transcriber.timeout", "15s")
	v.SetDefault("flights.cache_ttl", "5m")
	v.SetDefault("queue_size", 1024)
	v.SetDefault("queue_overflow", "drop_oldest")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("message_ttl", "24h")
	v.SetDefault("sweep_interval", "1h")
	v.SetDefault("message_purge_hour", 3)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Static: %s\n", cfg.Mode, cfg.Port, cfg.StaticPath)
	return &cfg, nil
}
