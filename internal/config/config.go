// Package config reads the collector's environment configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/Sternrassler/gbiz-collector/pkg/client"
)

// Environment variables read by FromEnv.
const (
	EnvToken     = "GBIZ_API_TOKEN"
	EnvBaseURL   = "GBIZ_API_BASE_URL"
	EnvRedisURL  = "GBIZ_REDIS_URL"
	EnvUserAgent = "GBIZ_USER_AGENT"
	EnvLogLevel  = "LOG_LEVEL"
)

// Config is the environment part of a run's configuration. Flags cover the
// rest.
type Config struct {
	Token     string
	BaseURL   string
	RedisURL  string
	UserAgent string
	LogLevel  string
}

// ConfigError is a fatal configuration problem detected before any network
// activity.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config error: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("config error: %s=%q %s", e.Field, e.Value, e.Reason)
}

// FromEnv reads the configuration from the process environment. Callers
// load .env beforehand.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	defaults := client.DefaultConfig("")
	cfg := Config{
		Token:     get(EnvToken, ""),
		BaseURL:   get(EnvBaseURL, defaults.BaseURL),
		RedisURL:  get(EnvRedisURL, ""),
		UserAgent: get(EnvUserAgent, defaults.UserAgent),
		LogLevel:  get(EnvLogLevel, ""),
	}

	if cfg.Token == "" {
		return cfg, &ConfigError{Field: EnvToken, Reason: "is not set (put it in the environment or .env)"}
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return cfg, &ConfigError{Field: EnvBaseURL, Value: cfg.BaseURL, Reason: "must be an absolute http(s) URL"}
	}

	return cfg, nil
}

// ClientConfig returns the API client configuration for this environment.
func (c Config) ClientConfig() client.Config {
	cc := client.DefaultConfig(c.Token)
	cc.BaseURL = c.BaseURL
	cc.UserAgent = c.UserAgent
	return cc
}
