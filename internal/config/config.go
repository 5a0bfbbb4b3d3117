// Package config loads tagweaver settings from embedded defaults, an optional
// TOML file and TAGWEAVER_ environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/grahms/tagweaver"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "tagweaver.toml"

// EnvPrefix marks environment overrides: TAGWEAVER_PREVIEW_LIMIT sets
// preview.limit.
const EnvPrefix = "TAGWEAVER_"

type Config struct {
	Tags     Tags     `koanf:"tags"`
	Preview  Preview  `koanf:"preview"`
	Render   Render   `koanf:"render"`
	Random   Random   `koanf:"random"`
	Generate Generate `koanf:"generate"`
	Output   Output   `koanf:"output"`
}

type Tags struct {
	File string `koanf:"file"`
}

type Preview struct {
	Limit         int `koanf:"limit"`
	WarnThreshold int `koanf:"warn_threshold"`
}

type Render struct {
	Separator string `koanf:"separator"`
}

type Random struct {
	Policy string `koanf:"policy"`
	Seed   uint64 `koanf:"seed"` // 0 means unseeded
}

type Generate struct {
	ExpandGuards bool `koanf:"expand_guards"`
}

type Output struct {
	Format string `koanf:"format"`
}

// Options controls where Load looks.
type Options struct {
	// Path is an explicit config file. It must exist when set. When empty,
	// DefaultFile is used if present.
	Path string
	// Overrides are dotted keys applied last, typically from CLI flags.
	Overrides map[string]interface{}
}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load merges defaults, the config file, env vars and overrides, in that
// order, and validates the result.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	path := opts.Path
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. Env vars
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns TAGWEAVER_SECTION_SOME_KEY into section.some_key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

// Validate rejects values the engine or CLI cannot use.
func (c *Config) Validate() error {
	if _, ok := tagweaver.ParseRandomPolicy(c.Random.Policy); !ok {
		return fmt.Errorf("invalid random.policy %q: want per-call or per-branch", c.Random.Policy)
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output.format %q: want text or json", c.Output.Format)
	}
	if c.Preview.Limit < 0 {
		return fmt.Errorf("invalid preview.limit %d: must not be negative", c.Preview.Limit)
	}
	return nil
}

// EngineOptions translates the config into engine options.
func (c *Config) EngineOptions() []func(*tagweaver.Engine) {
	policy, _ := tagweaver.ParseRandomPolicy(c.Random.Policy)
	opts := []func(*tagweaver.Engine){
		tagweaver.WithRandomPolicy(policy),
		tagweaver.WithGuardExpansion(c.Generate.ExpandGuards),
	}
	if c.Random.Seed != 0 {
		opts = append(opts, tagweaver.WithSeed(c.Random.Seed))
	}
	return opts
}
