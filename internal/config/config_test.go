package config

import (
	"errors"
	"testing"

	"github.com/Sternrassler/gbiz-collector/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(map[string]string{EnvToken: "secret"}))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, client.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "", cfg.RedisURL)
	assert.Equal(t, "gbiz-collector/0.1.0", cfg.UserAgent)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(map[string]string{
		EnvToken:     " secret ",
		EnvBaseURL:   "http://localhost:8080/hojin",
		EnvRedisURL:  "redis://localhost:6379/0",
		EnvUserAgent: "my-agent/1.0",
		EnvLogLevel:  "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "http://localhost:8080/hojin", cfg.BaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "my-agent/1.0", cfg.UserAgent)
	assert.Equal(t, "debug", cfg.LogLevel)

	cc := cfg.ClientConfig()
	assert.Equal(t, "secret", cc.Token)
	assert.Equal(t, "http://localhost:8080/hojin", cc.BaseURL)
	assert.Equal(t, "my-agent/1.0", cc.UserAgent)
}

func TestFromLookup_Errors(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{name: "missing token", env: map[string]string{}, field: EnvToken},
		{name: "blank token", env: map[string]string{EnvToken: "   "}, field: EnvToken},
		{name: "relative base url", env: map[string]string{EnvToken: "x", EnvBaseURL: "/hojin"}, field: EnvBaseURL},
		{name: "ftp base url", env: map[string]string{EnvToken: "x", EnvBaseURL: "ftp://example.com"}, field: EnvBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromLookup(lookupFrom(tt.env))
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvToken, "from-env")
	t.Setenv(EnvBaseURL, "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Token)
	assert.Equal(t, client.DefaultBaseURL, cfg.BaseURL)
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Field: EnvToken, Reason: "is not set"}
	assert.Equal(t, "config error: GBIZ_API_TOKEN is not set", err.Error())

	err = &ConfigError{Field: "--pref", Value: "99", Reason: "must be 01-47 or all"}
	assert.Equal(t, `config error: --pref="99" must be 01-47 or all`, err.Error())
}
