package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/killchain/core/metrics"
	"github.com/kilianp07/killchain/core/model"
	"github.com/kilianp07/killchain/core/scheduler"
	"github.com/kilianp07/killchain/infra/cache"
	"github.com/kilianp07/killchain/infra/mqtt"
)

type Config struct {
	Scheduler scheduler.Options `json:"scheduler"`
	// Chain overrides the default fourteen-phase kill chain.
	Chain   []model.Phase  `json:"chain"`
	Solver  SolverConfig   `json:"solver"`
	Metrics metrics.Config `json:"metrics"`
	MQTT    mqtt.Config    `json:"mqtt"`
	RunLog  RunLogConfig   `json:"runlog"`
	Cache   cache.Config   `json:"cache"`
	Sentry  SentryConfig   `json:"sentry"`
}

// SolverConfig tunes how runs are executed.
type SolverConfig struct {
	// Concurrency bounds the number of tables solved in parallel. Zero means
	// one run per table.
	Concurrency int `json:"concurrency"`
}

// KillChain returns the configured chain or the default one.
func (c *Config) KillChain() model.KillChain {
	if len(c.Chain) == 0 {
		return model.DefaultKillChain()
	}
	return model.KillChain(c.Chain)
}

// SetDefaults fills every section with its defaults.
func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	c.RunLog.SetDefaults()
	c.Cache.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.KillChain().Validate(); err != nil {
		return fmt.Errorf("chain: %w", err)
	}
	if c.Solver.Concurrency < 0 {
		return fmt.Errorf("solver: concurrency must not be negative")
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.RunLog.Validate(); err != nil {
		return fmt.Errorf("runlog: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// Default returns a configuration with every default applied, used when no
// file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
