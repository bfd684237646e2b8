package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platformbuilds/jitdirectives/internal/noise"
)

type Config struct {
	Capture       Capture       `yaml:"capture"`
	Launch        Launch        `yaml:"launch"`
	Filter        Filter        `yaml:"filter"`
	Output        Output        `yaml:"output"`
	Log           Log           `yaml:"log"`
	SelfTelemetry SelfTelemetry `yaml:"self_telemetry"`
}

type Capture struct {
	// PerfMapDir is where the runtime writes perf-<pid>.map.
	PerfMapDir       string        `yaml:"perf_map_dir"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	ResolveCacheSize int           `yaml:"resolve_cache_size"`
	ResolveCacheTTL  time.Duration `yaml:"resolve_cache_ttl"`
}

// Launch controls the environment of the observed program. Entries in Env
// are merged over the defaults; an empty value removes the variable.
type Launch struct {
	Env        map[string]string `yaml:"env"`
	InheritEnv bool              `yaml:"inherit_env"`
}

type Filter struct {
	ExtraRules []Rule `yaml:"extra_rules"`
}

// Rule is the file form of noise.Rule.
type Rule struct {
	Prefix      string `yaml:"prefix"`
	Contains    string `yaml:"contains"`
	PrivateOnly bool   `yaml:"private_only"`
	Reason      string `yaml:"reason"`
}

type Output struct {
	// Path of the directives document; empty writes to stdout.
	Path string `yaml:"path"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SelfTelemetry struct {
	// Listen enables /metrics, /healthz and /readyz when set.
	Listen    string `yaml:"listen"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Capture: Capture{
			PerfMapDir:       "/tmp",
			PollInterval:     500 * time.Millisecond,
			ResolveCacheSize: 4096,
			ResolveCacheTTL:  10 * time.Minute,
		},
		Launch: Launch{
			Env: map[string]string{
				"DOTNET_ReadyToRun": "1",
				"DOTNET_JITMinOpts": "1",
			},
			InheritEnv: true,
		},
		Log:           Log{Level: "info", Format: "console"},
		SelfTelemetry: SelfTelemetry{Namespace: "jitdirectives"},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.SelfTelemetry.Namespace == "" {
		c.SelfTelemetry.Namespace = "jitdirectives"
	}
	return c, nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Capture.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("capture.poll_interval must be positive, got %s", c.Capture.PollInterval))
	}
	if c.Capture.ResolveCacheSize < 0 {
		errs = append(errs, fmt.Errorf("capture.resolve_cache_size must not be negative, got %d", c.Capture.ResolveCacheSize))
	}
	if c.Capture.ResolveCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("capture.resolve_cache_ttl must not be negative, got %s", c.Capture.ResolveCacheTTL))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of console, json", c.Log.Format))
	}
	for i, r := range c.Filter.ExtraRules {
		if r.Prefix == "" {
			errs = append(errs, fmt.Errorf("filter.extra_rules[%d]: prefix is required", i))
		}
	}
	return errors.Join(errs...)
}

// NoiseRules converts the extra filter rules for noise.New.
func (f Filter) NoiseRules() []noise.Rule {
	rules := make([]noise.Rule, 0, len(f.ExtraRules))
	for _, r := range f.ExtraRules {
		access := noise.AnyAccess
		if r.PrivateOnly {
			access = noise.PrivateOnly
		}
		rules = append(rules, noise.Rule{
			Prefix:   r.Prefix,
			Contains: r.Contains,
			Access:   access,
			Reason:   noise.Reason(r.Reason),
		})
	}
	return rules
}

// Environ returns the launch variables to add, sorted by name, skipping
// entries with an empty value.
func (l Launch) Environ() []string {
	keys := make([]string, 0, len(l.Env))
	for k, v := range l.Env {
		if v != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+l.Env[k])
	}
	return env
}
