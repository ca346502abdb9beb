package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/duskward/loomkeeper/internal/mcp"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":       {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"image_gen": {"openai", "stability", "comfyui"},
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

var validTimeModes = []string{"manual", "action_cost", "real_time"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
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
	if cfg.Server.LogLevel != "" && !slices.Contains(validLogLevels, cfg.Server.LogLevel) {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("image_gen", cfg.Providers.ImageGen.Name)

	if cfg.Providers.LLM.Name == "" && len(cfg.Worlds) > 0 {
		slog.Warn("no LLM provider configured; player actions will not receive narrated responses")
	}

	// Storage availability
	if cfg.Storage.PostgresDSN == "" && len(cfg.Worlds) > 0 {
		errs = append(errs, errors.New("storage.postgres_dsn is required when worlds are configured"))
	}

	// World ID uniqueness and per-world validation
	worldIDsSeen := make(map[string]int, len(cfg.Worlds))
	for i, w := range cfg.Worlds {
		prefix := fmt.Sprintf("worlds[%d]", i)
		if w.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		} else {
			if prev, ok := worldIDsSeen[w.ID]; ok {
				errs = append(errs, fmt.Errorf("%s.id %q is a duplicate of worlds[%d]", prefix, w.ID, prev))
			}
			worldIDsSeen[w.ID] = i
		}
		if w.StagingTTL < 0 {
			errs = append(errs, fmt.Errorf("%s.staging_ttl must not be negative", prefix))
		}
		if w.PromptTokenBudget < 0 {
			errs = append(errs, fmt.Errorf("%s.prompt_token_budget must not be negative", prefix))
		}

		if w.Time.Mode != "" && !slices.Contains(validTimeModes, w.Time.Mode) {
			errs = append(errs, fmt.Errorf("%s.time.mode %q is invalid; valid values: manual, action_cost, real_time", prefix, w.Time.Mode))
		}
		if w.Time.Mode == "real_time" && w.Time.RealTimeScale <= 0 {
			errs = append(errs, fmt.Errorf("%s.time.real_time_scale must be positive when mode is real_time", prefix))
		}

		lastPoints := -1
		for j, th := range w.DispositionThresholds {
			tprefix := fmt.Sprintf("%s.disposition_thresholds[%d]", prefix, j)
			if th.Level == "" {
				errs = append(errs, fmt.Errorf("%s.level is required", tprefix))
			}
			if j > 0 && th.MinPoints <= lastPoints {
				errs = append(errs, fmt.Errorf("%s.min_points must be strictly ascending across disposition_thresholds", tprefix))
			}
			lastPoints = th.MinPoints
		}
	}

	// Queues
	if cfg.Queues.MaxAttempts < 0 {
		errs = append(errs, errors.New("queues.max_attempts must not be negative"))
	}
	if cfg.Queues.LeaseDuration < 0 {
		errs = append(errs, errors.New("queues.lease_duration must not be negative"))
	}
	if cfg.Queues.RetryBackoff < 0 {
		errs = append(errs, errors.New("queues.retry_backoff must not be negative"))
	}
	if cfg.Queues.CleanupInterval < 0 {
		errs = append(errs, errors.New("queues.cleanup_interval must not be negative"))
	}
	if cfg.Queues.CleanupAge < 0 {
		errs = append(errs, errors.New("queues.cleanup_age must not be negative"))
	}

	// MCP servers
	for i, srv := range cfg.MCP.Servers {
		prefix := fmt.Sprintf("mcp.servers[%d]", i)
		if srv.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		switch srv.Transport {
		case "", mcp.TransportStdio:
			if srv.Transport == mcp.TransportStdio && srv.Command == "" {
				errs = append(errs, fmt.Errorf("%s.command is required when transport is stdio", prefix))
			}
		case mcp.TransportStreamableHTTP:
			if srv.URL == "" {
				errs = append(errs, fmt.Errorf("%s.url is required when transport is streamable-http", prefix))
			}
		default:
			errs = append(errs, fmt.Errorf("%s.transport %q is invalid; valid values: stdio, streamable-http", prefix, srv.Transport))
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
