package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	GatewayURL      string        `mapstructure:"gateway_url" validate:"required,url"`
	Room            string        `mapstructure:"room"`
	RoomSecret      string        `mapstructure:"room_secret"`
	KeepAlivePeriod time.Duration `mapstructure:"keepalive_period"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"required"`
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
	v.SetDefault("port", 8088)
	v.SetDefault("gateway_url", "ws://localhost:8188/mixer")
	v.SetDefault("keepalive_period", "25s")
	v.SetDefault("request_timeout", "10s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
