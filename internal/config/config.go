// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the chatbot server.
// It handles loading and parsing YAML configuration files, and provides
// structured access to application settings including the server address,
// database path, knowledge base path, and log retention.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the network host/interface on which the API server will bind.
	// Default is empty ("") to bind all interfaces. Use "127.0.0.1" for
	// local-only access.
	Host string `yaml:"host"`
	// Port is the network port on which the API server will listen.
	Port int `yaml:"port"`

	// Debug enables or disables debug-level logging and Gin debug mode.
	Debug bool `yaml:"debug"`

	// LoggingToFile controls whether application logs are written to
	// rotating files or stdout.
	LoggingToFile bool `yaml:"logging-to-file"`

	// LogsDir is the directory for rotating log files when LoggingToFile is
	// enabled.
	LogsDir string `yaml:"logs-dir"`

	// DatabasePath is the SQLite file holding conversations, sessions and
	// daily aggregates. Parent directories are created on startup.
	DatabasePath string `yaml:"database-path"`

	// KnowledgeBasePath points to a JSON knowledge base. When empty or
	// unreadable the built-in knowledge base is used.
	KnowledgeBasePath string `yaml:"knowledge-base-path"`

	// RetentionDays is how many days of conversations and daily aggregates
	// to keep. Rows older than this are removed by the periodic cleanup.
	RetentionDays int `yaml:"retention-days"`

	// CleanupIntervalHours is how often the retention cleanup runs, in hours.
	CleanupIntervalHours int `yaml:"cleanup-interval-hours"`
}

// defaults returns a Config populated with default values. Absent YAML keys
// keep these values after unmarshal.
func defaults() Config {
	return Config{
		Host:                 "",
		Port:                 8080,
		Debug:                false,
		LoggingToFile:        false,
		LogsDir:              "logs",
		DatabasePath:         "data/conversations.db",
		RetentionDays:        90,
		CleanupIntervalHours: 24,
	}
}

// LoadConfig reads YAML from configFile. A missing file is not an error: the
// defaults are returned so the server can run with zero configuration. A
// file that exists but does not parse is an error.
func LoadConfig(configFile string) (*Config, error) {
	cfg := defaults()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		switch {
		case os.IsNotExist(err):
			// Missing and optional: run on defaults.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err = yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets environment variables (typically from a .env file)
// override file values, so deployments can keep per-host tweaks out of the
// YAML.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CHATBOT_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("CHATBOT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("CHATBOT_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Debug = debug
		}
	}
	if v := os.Getenv("CHATBOT_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("CHATBOT_KNOWLEDGE_BASE_PATH"); v != "" {
		c.KnowledgeBasePath = v
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be in 1-65535", c.Port)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database-path must not be empty")
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("invalid retention-days %d: must be at least 1", c.RetentionDays)
	}
	if c.CleanupIntervalHours < 1 {
		return fmt.Errorf("invalid cleanup-interval-hours %d: must be at least 1", c.CleanupIntervalHours)
	}
	return nil
}

// CleanupInterval returns the cleanup cadence as a duration.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalHours) * time.Hour
}

// Addr returns the host:port the API server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
