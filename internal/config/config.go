package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// devJWTSecret is only ever used when app.env is "development". Production
// startup fails hard when jwt.secret is unset.
const devJWTSecret = "dev-only-secret-do-not-use-in-production"

var ErrMissingJWTSecret = errors.New("jwt.secret is not set (required outside development)")

type Config struct {
	App AppConfig `mapstructure:"app"`
	DB  DBConfig  `mapstructure:"db"`
	JWT JWTConfig `mapstructure:"jwt"`
}

type AppConfig struct {
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
}

type DBConfig struct {
	Source string `mapstructure:"source"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func Load() (*Config, error) {
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/configs")
	viper.SetConfigName("settings")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.JWT.Secret == "" {
		if !cfg.IsDevelopment() {
			return nil, ErrMissingJWTSecret
		}
		cfg.JWT.Secret = devJWTSecret
	}

	return &cfg, nil
}
