package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the bot. It is built once at startup
// and passed by pointer to every component; nothing reads the environment later.
type Config struct {
	General  GeneralConfig  `json:"general" yaml:"general"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Weather  WeatherConfig  `json:"weather" yaml:"weather"`
	News     NewsConfig     `json:"news" yaml:"news"`
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Usage    UsageConfig    `json:"usage" yaml:"usage"`
	Status   StatusConfig   `json:"status" yaml:"status"`
	Tracing  TracingConfig  `json:"tracing" yaml:"tracing"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel" yaml:"logLevel"`
}

type TelegramConfig struct {
	Token string `json:"token" yaml:"token"`
	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int `json:"pollTimeout" yaml:"pollTimeout"`
}

// WeatherConfig configures the OpenWeatherMap-compatible provider.
type WeatherConfig struct {
	APIKey  string `json:"apiKey" yaml:"apiKey"`
	APIBase string `json:"apiBase" yaml:"apiBase"`
	Units   string `json:"units" yaml:"units"`
	Lang    string `json:"lang" yaml:"lang"`
}

// NewsConfig configures the NewsAPI-compatible provider.
type NewsConfig struct {
	APIKey   string `json:"apiKey" yaml:"apiKey"`
	APIBase  string `json:"apiBase" yaml:"apiBase"`
	Language string `json:"language" yaml:"language"`
	SortBy   string `json:"sortBy" yaml:"sortBy"`
	PageSize int    `json:"pageSize" yaml:"pageSize"`
}

// HTTPConfig tunes the outbound provider client. The default 30s timeout is
// stricter than earlier releases, which let provider calls run unbounded;
// set timeoutSeconds to 0 to get that behavior back.
type HTTPConfig struct {
	// TimeoutSeconds bounds each outbound provider call. 0 disables the limit.
	TimeoutSeconds int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

type UsageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DBPath  string `json:"dbPath" yaml:"dbPath"`
}

type StatusConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Host    string `json:"host" yaml:"host"`
	Port    int    `json:"port" yaml:"port"`
}

// TracingConfig selects an OpenTelemetry span exporter: "" (off), "stdout"
// or "otlp" (gRPC, to Endpoint).
type TracingConfig struct {
	Exporter string `json:"exporter" yaml:"exporter"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// Addr returns host:port for the status server.
func (s StatusConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Resolve builds the process configuration: .env file, optional config file,
// then environment overrides. Missing secrets are not an error here; they
// surface as provider or transport failures on first use.
func Resolve(path string) (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	ApplyEnv(cfg)
	cfg.Usage.DBPath = ExpandPath(cfg.Usage.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".weatherbot"
	}
	return filepath.Join(home, ".weatherbot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load reads a JSON or YAML config file on top of Defaults().
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Usage.DBPath = ExpandPath(cfg.Usage.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides config values with environment variables when set.
func ApplyEnv(cfg *Config) {
	setString(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	setString(&cfg.Weather.APIKey, "WEATHER_API_KEY")
	setString(&cfg.News.APIKey, "NEWS_API_KEY")
	setString(&cfg.Weather.APIBase, "WEATHER_API_BASE")
	setString(&cfg.News.APIBase, "NEWS_API_BASE")
	setString(&cfg.General.LogLevel, "WEATHERBOT_LOG_LEVEL")

	if v, ok := os.LookupEnv("WEATHERBOT_USAGE_DB"); ok && v != "" {
		cfg.Usage.Enabled = true
		cfg.Usage.DBPath = ExpandPath(v)
	}
	if v, ok := os.LookupEnv("WEATHERBOT_STATUS_ADDR"); ok && v != "" {
		host, port, err := net.SplitHostPort(v)
		n, perr := strconv.Atoi(port)
		if err != nil || perr != nil || n < 1 || n > 65535 {
			slog.Warn("ignoring malformed WEATHERBOT_STATUS_ADDR", "value", v)
		} else {
			cfg.Status.Enabled = true
			cfg.Status.Host = host
			cfg.Status.Port = n
		}
	}
	setString(&cfg.Tracing.Exporter, "WEATHERBOT_TRACING")
	if v, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT"); ok && v != "" {
		cfg.Tracing.Endpoint = v
		if cfg.Tracing.Exporter == "" {
			cfg.Tracing.Exporter = "otlp"
		}
	}
	if v, ok := os.LookupEnv("WEATHERBOT_HTTP_TIMEOUT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.TimeoutSeconds = n
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

// Save writes cfg as indented JSON, or YAML when path ends in .yaml/.yml.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has valid values. Secrets are deliberately
// not required.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if cfg.Telegram.PollTimeout < 0 || cfg.Telegram.PollTimeout > 600 {
		errs = append(errs, "telegram.pollTimeout must be between 0 and 600")
	}
	if cfg.Weather.APIBase == "" {
		errs = append(errs, "weather.apiBase is required")
	}
	if cfg.News.APIBase == "" {
		errs = append(errs, "news.apiBase is required")
	}
	if cfg.News.PageSize < 1 || cfg.News.PageSize > 100 {
		errs = append(errs, "news.pageSize must be between 1 and 100")
	}
	if cfg.HTTP.TimeoutSeconds < 0 {
		errs = append(errs, "http.timeoutSeconds must be >= 0")
	}
	if cfg.Usage.Enabled && cfg.Usage.DBPath == "" {
		errs = append(errs, "usage.dbPath is required when usage is enabled")
	}
	if cfg.Status.Port < 0 || cfg.Status.Port > 65535 {
		errs = append(errs, "status.port must be between 0 and 65535")
	}
	switch cfg.Tracing.Exporter {
	case "", "stdout":
	case "otlp":
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, "tracing.endpoint is required for the otlp exporter")
		}
	default:
		errs = append(errs, "tracing.exporter must be one of: stdout, otlp")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
