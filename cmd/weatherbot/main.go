package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"weatherbot/internal/config"
	"weatherbot/internal/domain"
	"weatherbot/internal/news"
	"weatherbot/internal/provider"
	"weatherbot/internal/tracing"
	"weatherbot/internal/usage"
	"weatherbot/internal/weather"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = newLogger(os.Stderr, "info")

	root := &cobra.Command{
		Use:   "weatherbot",
		Short: "Telegram bot for weather, forecasts and local news",
		Long: `weatherbot answers a city name with the current weather, and offers
buttons for a 5-day forecast and the latest news about that city.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml or config.json (default: ~/.weatherbot/config.yaml if present)")

	root.AddCommand(runCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(lookupCmd("weather", "Print the current weather for a city"))
	root.AddCommand(lookupCmd("forecast", "Print the 5-day forecast for a city"))
	root.AddCommand(lookupCmd("news", "Print the latest news about a city"))
	root.AddCommand(statsCmd())
	root.AddCommand(configCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the --config flag, or the default path when a
// file exists there. An empty result means defaults plus environment only.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if _, err := os.Stat(config.DefaultConfigPath()); err == nil {
		return config.DefaultConfigPath()
	}
	return ""
}

// loadConfig resolves the configuration and rebuilds the global logger at
// the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger = newLogger(os.Stderr, cfg.General.LogLevel)
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// services bundles the gateways every entry point needs.
type services struct {
	weather *weather.Gateway
	news    *news.Gateway
	store   *usage.SQLiteStore // nil when usage logging is disabled
	tracer  *tracing.Provider
}

func (s *services) Close() {
	if s.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.tracer.Shutdown(ctx); err != nil {
			logger.Warn("flush traces", "err", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logger.Warn("close usage store", "err", err)
		}
	}
}

func buildServices(cfg *config.Config) (*services, error) {
	tp, err := tracing.Setup(context.Background(), cfg.Tracing, version, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	svc := &services{tracer: tp}
	if tp.Enabled() {
		logger.Info("tracing enabled", "exporter", cfg.Tracing.Exporter)
	}

	var recorder domain.CallRecorder
	if cfg.Usage.Enabled {
		store, err := usage.NewSQLiteStore(cfg.Usage.DBPath, logger)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("usage store: %w", err)
		}
		svc.store = store
		recorder = store
	}

	if cfg.Weather.APIKey == "" {
		logger.Warn("WEATHER_API_KEY is not set; weather requests will fail")
	}
	if cfg.News.APIKey == "" {
		logger.Warn("NEWS_API_KEY is not set; news requests will fail")
	}

	client := provider.NewClient(provider.ClientConfig{
		Timeout:  time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		Recorder: recorder,
		Logger:   logger,
	})
	svc.weather = weather.NewGateway(client, cfg.Weather, logger)
	svc.news = news.NewGateway(client, cfg.News, logger)
	return svc, nil
}
