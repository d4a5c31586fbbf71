package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all datascreen configuration. The filter command only
// uses the logging section; the notify command wires up the rest.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	WeChat  WeChatConfig  `mapstructure:"wechat"`
	Zabbix  ZabbixConfig  `mapstructure:"zabbix"`
	Voice   VoiceConfig   `mapstructure:"voice"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WeChatConfig defines the WeChat Work group-robot webhook.
type WeChatConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
}

// ZabbixConfig defines the monitoring API used for the
// unresolved-alarm list.
type ZabbixConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// VoiceConfig defines the Aliyun voice-call gateway.
type VoiceConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Endpoint        string   `mapstructure:"endpoint"`
	AccessKeyID     string   `mapstructure:"access_key_id"`
	AccessKeySecret string   `mapstructure:"access_key_secret"`
	TtsCode         string   `mapstructure:"tts_code"`
	Numbers         []string `mapstructure:"numbers"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".datascreen"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("wechat.enabled", false)
	v.SetDefault("zabbix.enabled", false)
	v.SetDefault("voice.enabled", false)
	v.SetDefault("voice.endpoint", "https://dyvmsapi.aliyuncs.com/")

	// Environment variables
	v.SetEnvPrefix("DATASCREEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
