// Package config loads runtime settings from the config file, environment,
// and flags via viper, plus named connection profiles from YAML.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	Server  ServerSettings
	Auth    AuthSettings
	LLM     LLMSettings
	Logging LoggingSettings
}

// ServerSettings controls the HTTP listener.
type ServerSettings struct {
	Host            string
	Port            int
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	RateLimit       int           // requests per window per client, 0 disables
	RateWindow      time.Duration // rate limit window
}

// AuthSettings controls conversation token issuing.
type AuthSettings struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// LLMSettings configures the chat completions client.
type LLMSettings struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
}

// LoggingSettings controls log output.
type LoggingSettings struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// SetDefaults installs every default into v. Call before binding flags so
// explicit values win.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("server.rate_window", "1m")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load resolves the settings from v.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Server: ServerSettings{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			CORSOrigins:     v.GetStringSlice("server.cors_origins"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			RateLimit:       v.GetInt("server.rate_limit"),
			RateWindow:      v.GetDuration("server.rate_window"),
		},
		Auth: AuthSettings{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		LLM: LLMSettings{
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			Timeout:     v.GetDuration("llm.timeout"),
			Temperature: v.GetFloat64("llm.temperature"),
		},
		Logging: LoggingSettings{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if s.Server.Port < 1 || s.Server.Port > 65535 {
		return Settings{}, fmt.Errorf("config: server.port %d out of range", s.Server.Port)
	}
	if s.Auth.TokenTTL <= 0 {
		return Settings{}, fmt.Errorf("config: auth.token_ttl must be positive")
	}
	return s, nil
}
