package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"transcription": {"deepgram"},
	"generative":    {"gemini", "openai"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. $VAR and ${VAR} references in the file are replaced with the
// corresponding environment variable before decoding, so secrets like API
// keys can stay out of the file itself. Unset variables expand to the empty
// string.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg, err := LoadFromReader(strings.NewReader(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("transcription", cfg.Providers.Transcription.Name)
	validateProviderName("generative", cfg.Providers.Generative.Name)
	validateProviderName("generative", cfg.Providers.GenerativeFallback.Name)

	// Phrase generation and holistic scoring both need the generative backend.
	if cfg.Providers.Generative.Name == "" {
		errs = append(errs, errors.New("providers.generative.name is required; sessions cannot generate practice phrases without it"))
	} else if cfg.Providers.Generative.APIKey == "" {
		slog.Warn("providers.generative.api_key is empty; the provider client will rely on its environment defaults")
	}

	// Transcription is optional: without it only the holistic strategy works.
	if cfg.Providers.Transcription.Name == "" {
		slog.Warn("providers.transcription is not configured; word-by-word scoring will be unavailable")
	} else if cfg.Providers.Transcription.APIKey == "" {
		slog.Warn("providers.transcription.api_key is empty; the provider client will rely on its environment defaults")
	}

	// Store availability
	if cfg.Store.PostgresDSN == "" {
		slog.Warn("store.postgres_dsn is empty; sessions will be kept in memory and lost on restart")
	}

	// Session engine
	if cfg.Session.ProviderTimeout < 0 {
		errs = append(errs, fmt.Errorf("session.provider_timeout %s is negative", cfg.Session.ProviderTimeout))
	}

	// TLS requires both halves of the key pair.
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when server.tls is set"))
		}
		if tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when server.tls is set"))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
