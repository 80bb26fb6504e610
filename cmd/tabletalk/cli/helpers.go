package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/llm"
)

// newLogger builds the process logger from the logging settings. It writes
// to stderr so stdout stays clean for command output and stdio transports.
func newLogger(cfg config.LoggingSettings) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newLLMClient builds the completions client from the LLM settings.
func newLLMClient(cfg config.LLMSettings) (llm.Client, error) {
	client, err := llm.NewOpenAIClient(llm.ClientConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm client: %w (set llm.api_key in tabletalk.yaml or TABLETALK_LLM_API_KEY)", err)
	}
	return client, nil
}

// profilesPath resolves the connection profiles file: the command flag wins,
// then the profiles key from the config file, then ./profiles.yaml.
func profilesPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := viper.GetString("profiles"); p != "" {
		return p
	}
	return "profiles.yaml"
}
