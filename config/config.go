package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
		// BaseURL is used when building absolute links (short links, media).
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"ssl_mode"`
	} `mapstructure:"database"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Media struct {
		// Dir is where uploaded images are written when the disk store is used.
		Dir string `mapstructure:"dir"`
		// URLPrefix is the public path under which Dir is served.
		URLPrefix string `mapstructure:"url_prefix"`
		// S3Bucket switches image storage to S3 when non-empty.
		S3Bucket string `mapstructure:"s3_bucket"`
	} `mapstructure:"media"`

	API struct {
		PageSize       int `mapstructure:"page_size"`
		MaxPageSize    int `mapstructure:"max_page_size"`
		MaxCookingTime int `mapstructure:"max_cooking_time"`
	} `mapstructure:"api"`

	JWTSecret string `mapstructure:"jwt_secret"`
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Name, c.Database.SSLMode,
	)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads configuration from configs/config.yaml with environment variable
// overrides (e.g. DATABASE_HOST overrides database.host). A missing config
// file is not an error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AddConfigPath("./configs")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "foodgram")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "foodgram")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("media.dir", "./media")
	v.SetDefault("media.url_prefix", "/media")
	v.SetDefault("media.s3_bucket", "")
	v.SetDefault("api.page_size", 10)
	v.SetDefault("api.max_page_size", 100)
	v.SetDefault("api.max_cooking_time", 1440)
	v.SetDefault("jwt_secret", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.API.PageSize < 1 || cfg.API.PageSize > cfg.API.MaxPageSize {
		return nil, fmt.Errorf("api.page_size must be in [1, %d]", cfg.API.MaxPageSize)
	}
	if cfg.API.MaxCookingTime < 1 {
		return nil, fmt.Errorf("api.max_cooking_time must be positive")
	}

	return &cfg, nil
}
