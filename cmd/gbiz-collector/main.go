// Package main is the gbiz-collector CLI: bulk collection of corporate
// records from the gBizINFO API in a dump phase and a hydrate phase.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/gbiz-collector/internal/config"
	"github.com/Sternrassler/gbiz-collector/pkg/cache"
	"github.com/Sternrassler/gbiz-collector/pkg/hojin"
	"github.com/Sternrassler/gbiz-collector/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK     = 0
	exitFatal  = 1
	exitConfig = 2
)

var rootCmd = &cobra.Command{
	Use:   "gbiz-collector",
	Short: "Bulk collector for the gBizINFO corporate registry API",
	Long: "gbiz-collector lists corporations matching a filter (dump), fetches the full record " +
		"for every listed corporate number (hydrate), or both in one run (pipeline). " +
		"The API token is read from GBIZ_API_TOKEN.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

var (
	logLevel    string
	logPretty   bool
	metricsAddr string
	cacheTTL    time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error (env LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "Human-readable console logs instead of JSON")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address during the run (e.g. :9090)")
	rootCmd.PersistentFlags().DurationVar(&cacheTTL, "cache-ttl", cache.DefaultTTL, "Lifetime of cached detail responses when GBIZ_REDIS_URL is set")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &config.ConfigError{Field: "flags", Reason: err.Error()}
	})
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps configuration problems to 2 and every other failure to 1.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var cerr *config.ConfigError
	var verr *hojin.ValidationError
	if errors.As(err, &cerr) || errors.As(err, &verr) {
		return exitConfig
	}
	return exitFatal
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level := logLevel
	if !cmd.Flags().Changed("log-level") {
		if env := os.Getenv(config.EnvLogLevel); env != "" {
			level = env
		}
	}
	if _, err := logging.ParseLevel(level); err != nil {
		return &config.ConfigError{Field: "--log-level", Value: level, Reason: err.Error()}
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(level),
		Pretty: logPretty,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}
