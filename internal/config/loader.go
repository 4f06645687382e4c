package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path, applies defaults, and
// returns a validated [Config]. A missing file is an error; callers that
// treat the default path as optional should check with os.Stat first and
// fall back to [Default].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if !cfg.Server.Transport.IsValid() {
		errs = append(errs, fmt.Errorf("server.transport %q is invalid; valid values: stdio, http", cfg.Server.Transport))
	}
	if cfg.Server.Transport == TransportHTTP && cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required when transport is http"))
	}

	errs = append(errs, validateUpstream("xivapi", &cfg.XIVAPI)...)
	errs = append(errs, validateUpstream("universalis", &cfg.Universalis)...)
	errs = append(errs, validateUpstream("saddlebag", &cfg.Saddlebag)...)

	if cfg.Materia.TTL < 0 {
		errs = append(errs, fmt.Errorf("materia.ttl must not be negative, got %s", cfg.Materia.TTL.Std()))
	}
	if cfg.Ranking.MinVelocity < 0 {
		errs = append(errs, fmt.Errorf("ranking.min_velocity must not be negative, got %v", cfg.Ranking.MinVelocity))
	}

	return errors.Join(errs...)
}

func validateUpstream(name string, cfg *UpstreamConfig) []error {
	var errs []error
	if cfg.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%s.base_url is required", name))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s.timeout must not be negative, got %s", name, cfg.Timeout.Std()))
	}
	if cfg.Limiter.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("%s.limiter.max_concurrent must not be negative, got %d", name, cfg.Limiter.MaxConcurrent))
	}
	if cfg.Limiter.Reservoir < 0 {
		errs = append(errs, fmt.Errorf("%s.limiter.reservoir must not be negative, got %d", name, cfg.Limiter.Reservoir))
	}
	if cfg.Limiter.RefreshAmount < 0 {
		errs = append(errs, fmt.Errorf("%s.limiter.refresh_amount must not be negative, got %d", name, cfg.Limiter.RefreshAmount))
	}
	return errs
}
