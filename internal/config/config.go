// Package config provides the configuration schema and loader for the
// xivmarket server.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tivalu/xivmarket/internal/fetch"
	"github.com/tivalu/xivmarket/internal/materia"
	"github.com/tivalu/xivmarket/internal/saddlebag"
	"github.com/tivalu/xivmarket/internal/universalis"
	"github.com/tivalu/xivmarket/internal/xivapi"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Transport selects how the server speaks the model context protocol.
type Transport string

const (
	// TransportStdio serves a single session over stdin/stdout.
	TransportStdio Transport = "stdio"

	// TransportHTTP serves streamable-HTTP sessions on ListenAddr.
	TransportHTTP Transport = "http"
)

// IsValid reports whether t is a recognised transport.
func (t Transport) IsValid() bool {
	return t == TransportStdio || t == TransportHTTP
}

// Duration wraps time.Duration with YAML decoding from strings like "30s".
type Duration time.Duration

// UnmarshalYAML decodes either a bare integer (nanoseconds) or a
// time.ParseDuration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case int:
		*d = Duration(time.Duration(v))
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	}
	return fmt.Errorf("invalid duration value %v", raw)
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server      ServerConfig   `yaml:"server"`
	XIVAPI      UpstreamConfig `yaml:"xivapi"`
	Universalis UpstreamConfig `yaml:"universalis"`
	Saddlebag   UpstreamConfig `yaml:"saddlebag"`
	Materia     MateriaConfig  `yaml:"materia"`
	Ranking     RankingConfig  `yaml:"ranking"`
}

// ServerConfig holds transport and logging settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// Transport selects stdio or streamable HTTP.
	Transport Transport `yaml:"transport"`

	// ListenAddr is the TCP address for the HTTP transport (e.g., ":8080").
	// Ignored for stdio.
	ListenAddr string `yaml:"listen_addr"`

	// MetricsAddr, when set, serves Prometheus metrics at /metrics on this
	// address regardless of transport.
	MetricsAddr string `yaml:"metrics_addr"`

	// UserAgent is sent on every upstream request.
	UserAgent string `yaml:"user_agent"`
}

// LimiterConfig shapes upstream request flow.
type LimiterConfig struct {
	// MaxConcurrent caps in-flight requests.
	MaxConcurrent int `yaml:"max_concurrent"`

	// Reservoir is the initial request budget.
	Reservoir int `yaml:"reservoir"`

	// RefreshAmount is what the budget is reset to each interval.
	RefreshAmount int `yaml:"refresh_amount"`

	// RefreshInterval is the reset period.
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// Fetch converts to the limiter package's config type.
func (l LimiterConfig) Fetch() fetch.LimiterConfig {
	return fetch.LimiterConfig{
		MaxConcurrent:   l.MaxConcurrent,
		Reservoir:       l.Reservoir,
		RefreshAmount:   l.RefreshAmount,
		RefreshInterval: l.RefreshInterval.Std(),
	}
}

// UpstreamConfig holds per-API client settings.
type UpstreamConfig struct {
	// BaseURL overrides the client's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request deadline.
	Timeout Duration `yaml:"timeout"`

	// Language is the game-data result language. Only meaningful for the
	// xivapi block.
	Language string `yaml:"language"`

	// Version pins the game-data version. Only meaningful for the xivapi
	// block.
	Version string `yaml:"version"`

	Limiter LimiterConfig `yaml:"limiter"`
}

// MateriaConfig holds the materia expansion index settings.
type MateriaConfig struct {
	// DataPath is the JSON file the index is persisted to.
	DataPath string `yaml:"data_path"`

	// TTL is the index freshness window.
	TTL Duration `yaml:"ttl"`

	// Refresh gates network refreshes of the index.
	Refresh *bool `yaml:"refresh"`
}

// RankingConfig holds profitability-ranking defaults.
type RankingConfig struct {
	// MinVelocity is the default minimum daily sale velocity; entries below
	// it rank unscored. Zero disables the gate.
	MinVelocity float64 `yaml:"min_velocity"`
}

// Default returns the built-in configuration, matching upstream rate-limit
// guidance.
func Default() *Config {
	refresh := true
	return &Config{
		Server: ServerConfig{
			LogLevel:   LogInfo,
			Transport:  TransportStdio,
			ListenAddr: ":8080",
			UserAgent:  "xivmarket/1.0",
		},
		XIVAPI: UpstreamConfig{
			BaseURL:  xivapi.DefaultBaseURL,
			Timeout:  Duration(fetch.DefaultTimeout),
			Language: "en",
			Version:  "latest",
			Limiter: LimiterConfig{
				MaxConcurrent:   4,
				Reservoir:       20,
				RefreshAmount:   10,
				RefreshInterval: Duration(time.Second),
			},
		},
		Universalis: UpstreamConfig{
			BaseURL: universalis.DefaultBaseURL,
			Timeout: Duration(fetch.DefaultTimeout),
			Limiter: LimiterConfig{
				MaxConcurrent:   8,
				Reservoir:       50,
				RefreshAmount:   25,
				RefreshInterval: Duration(time.Second),
			},
		},
		Saddlebag: UpstreamConfig{
			BaseURL: saddlebag.DefaultBaseURL,
			Timeout: Duration(fetch.DefaultTimeout),
			Limiter: LimiterConfig{
				MaxConcurrent:   4,
				Reservoir:       20,
				RefreshAmount:   10,
				RefreshInterval: Duration(time.Second),
			},
		},
		Materia: MateriaConfig{
			DataPath: "data/materia.json",
			TTL:      Duration(materia.DefaultTTL),
			Refresh:  &refresh,
		},
	}
}

// ApplyDefaults fills zero-valued fields of cfg from [Default].
func ApplyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = def.Server.LogLevel
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = def.Server.Transport
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = def.Server.ListenAddr
	}
	if cfg.Server.UserAgent == "" {
		cfg.Server.UserAgent = def.Server.UserAgent
	}
	applyUpstreamDefaults(&cfg.XIVAPI, &def.XIVAPI)
	applyUpstreamDefaults(&cfg.Universalis, &def.Universalis)
	applyUpstreamDefaults(&cfg.Saddlebag, &def.Saddlebag)
	if cfg.Materia.DataPath == "" {
		cfg.Materia.DataPath = def.Materia.DataPath
	}
	if cfg.Materia.TTL <= 0 {
		cfg.Materia.TTL = def.Materia.TTL
	}
	if cfg.Materia.Refresh == nil {
		cfg.Materia.Refresh = def.Materia.Refresh
	}
}

func applyUpstreamDefaults(cfg, def *UpstreamConfig) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.Limiter.MaxConcurrent == 0 {
		cfg.Limiter.MaxConcurrent = def.Limiter.MaxConcurrent
	}
	if cfg.Limiter.Reservoir == 0 {
		cfg.Limiter.Reservoir = def.Limiter.Reservoir
	}
	if cfg.Limiter.RefreshAmount == 0 {
		cfg.Limiter.RefreshAmount = def.Limiter.RefreshAmount
	}
	if cfg.Limiter.RefreshInterval <= 0 {
		cfg.Limiter.RefreshInterval = def.Limiter.RefreshInterval
	}
}

// SlogLevel maps the configured level onto the slog scale.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}
