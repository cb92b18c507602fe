package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/gbiz-collector/internal/config"
	"github.com/Sternrassler/gbiz-collector/pkg/cache"
	"github.com/Sternrassler/gbiz-collector/pkg/client"
	"github.com/Sternrassler/gbiz-collector/pkg/collector"
	"github.com/Sternrassler/gbiz-collector/pkg/logging"
	"github.com/Sternrassler/gbiz-collector/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisPingTimeout = 3 * time.Second
	shutdownTimeout  = 5 * time.Second
)

// session owns every resource of one command run. close releases them on
// all exit paths.
type session struct {
	collector *collector.Collector
	client    *client.Client
	redis     *redis.Client
	metrics   *metrics.Server
	logger    zerolog.Logger
}

// newSession reads the environment and builds the client, the optional
// detail cache and the optional metrics server.
func newSession(ctx context.Context, interval time.Duration) (*session, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	s := &session{logger: logging.NewLogger("cli")}

	cc := cfg.ClientConfig()
	cc.Interval = interval
	cc.CacheTTL = cacheTTL

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, &config.ConfigError{Field: config.EnvRedisURL, Value: cfg.RedisURL, Reason: err.Error()}
		}
		s.redis = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err = s.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis unreachable, running without detail cache")
			s.redis.Close()
			s.redis = nil
		} else {
			s.logger.Info().Str("addr", opts.Addr).Dur("ttl", cacheTTL).Msg("Detail cache enabled")
			cc.Cache = cache.NewManager(s.redis)
		}
	}

	s.client, err = client.New(cc)
	if err != nil {
		s.close()
		return nil, &config.ConfigError{Field: "client", Reason: err.Error()}
	}

	if metricsAddr != "" {
		s.metrics, err = metrics.Start(metricsAddr, s.logger)
		if err != nil {
			s.close()
			return nil, err
		}
	}

	s.collector = collector.New(s.client, logging.NewLogger("collector"))
	return s, nil
}

func (s *session) close() error {
	var errs []error
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		errs = append(errs, s.metrics.Shutdown(ctx))
		cancel()
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
