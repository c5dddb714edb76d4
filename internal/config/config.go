package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string `mapstructure:"mode"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	Secret     string `mapstructure:"secret"`
	LogLevel   string `mapstructure:"log_level"`
	PrefsPath  string `mapstructure:"prefs_path"`

	NotificationTTL      time.Duration `mapstructure:"notification_ttl"`
	LoopbackTestDuration time.Duration `mapstructure:"loopback_test_duration"`
	MeterInterval        time.Duration `mapstructure:"meter_interval"`
	MeterWindow          int           `mapstructure:"meter_window"`

	HotplugDebounce time.Duration `mapstructure:"hotplug_debounce"`
	HotplugPoll     time.Duration `mapstructure:"hotplug_poll"`
	HotplugPaths    []string      `mapstructure:"hotplug_paths"`

	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	EventBuffer  int           `mapstructure:"event_buffer"`
	CommandRate  int           `mapstructure:"command_rate"`
	CommandBurst time.Duration `mapstructure:"command_window"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "vibe-dev-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("prefs_path", "./data/prefs")

	v.SetDefault("notification_ttl", "3s")
	v.SetDefault("loopback_test_duration", "5s")
	v.SetDefault("meter_interval", "16ms")
	v.SetDefault("meter_window", 512)

	v.SetDefault("hotplug_debounce", "250ms")
	v.SetDefault("hotplug_poll", "2s")
	v.SetDefault("hotplug_paths", []string{"/dev", "/dev/snd"})

	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("event_buffer", 64)
	v.SetDefault("command_rate", 20)
	v.SetDefault("command_window", "1s")
}

// Load reads config/config.<CONFIG_ENV>.yaml over the defaults. A missing
// file is not an error.
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
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Prefs: %s\n", cfg.Mode, cfg.Port, cfg.PrefsPath)
	return &cfg, nil
}
