package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/grcdesk/insight"
	"github.com/hazyhaar/grcdesk/sentiment"
	"github.com/hazyhaar/grcdesk/textembed"
)

// serverConfig is the YAML configuration file layout. Every field has a
// sane default and an environment override, so the file is optional.
type serverConfig struct {
	Port     string `yaml:"port"`
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`
	Workers  int    `yaml:"workers"`

	// ReprocessSchedule is a 5-field cron expression for periodic
	// re-enrichment of stored tickets. Empty disables the scheduler.
	ReprocessSchedule string `yaml:"reprocess_schedule"`

	Auth struct {
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"auth"`

	Embed     textembed.Config       `yaml:"embed"`
	Sentiment sentiment.ClientConfig `yaml:"sentiment"`
	Insight   insight.Config         `yaml:"insight"`

	// MCPTransport selects the MCP wire transport: "stdio" or "" (off).
	MCPTransport string `yaml:"mcp_transport"`
}

func loadConfig(path string) (*serverConfig, error) {
	cfg := &serverConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment overrides the file.
	overrideEnv(&cfg.Port, "PORT")
	overrideEnv(&cfg.DBPath, "GRCDESK_DB")
	overrideEnv(&cfg.LogLevel, "LOG_LEVEL")
	overrideEnv(&cfg.ReprocessSchedule, "REPROCESS_SCHEDULE")
	overrideEnv(&cfg.Auth.User, "AUTH_USER")
	overrideEnv(&cfg.Auth.Password, "AUTH_PASSWORD")
	overrideEnv(&cfg.Embed.Endpoint, "EMBED_ENDPOINT")
	overrideEnv(&cfg.Embed.APIKey, "EMBED_API_KEY")
	overrideEnv(&cfg.Sentiment.Endpoint, "SENTIMENT_ENDPOINT")
	overrideEnv(&cfg.Insight.APIKey, "ANTHROPIC_API_KEY")
	overrideEnv(&cfg.Insight.Model, "ANTHROPIC_MODEL")
	overrideEnv(&cfg.MCPTransport, "MCP_TRANSPORT")

	if cfg.Port == "" {
		cfg.Port = "8086"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "db/grcdesk.db"
	}
	if cfg.Auth.User == "" {
		cfg.Auth.User = "admin"
	}
	return cfg, nil
}

func overrideEnv(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}
