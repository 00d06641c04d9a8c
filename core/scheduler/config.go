package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/killchain/core/model"
)

// Options tunes model construction and the solver budget.
type Options struct {
	// MaxHorizon caps every timestamp. Zero keeps the computed horizon.
	MaxHorizon int64 `json:"max_horizon" yaml:"max_horizon"`
	// SamePlatformGroups lists phase groups whose consecutive present slots
	// of one target must run on the same platform, e.g. Track1..Track3.
	SamePlatformGroups [][]model.PhaseID `json:"same_platform_groups" yaml:"same_platform_groups"`
	// TimeLimitMS bounds the wall-clock time of a solve. Zero is unlimited.
	TimeLimitMS int `json:"time_limit_ms" yaml:"time_limit_ms"`
	// NodeLimit bounds the number of search nodes. Zero is unlimited.
	NodeLimit int64 `json:"node_limit" yaml:"node_limit"`
}

// TimeLimit returns the wall-clock budget.
func (o Options) TimeLimit() time.Duration {
	return time.Duration(o.TimeLimitMS) * time.Millisecond
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MaxHorizon < 0 {
		return fmt.Errorf("max_horizon must not be negative")
	}
	if o.TimeLimitMS < 0 {
		return fmt.Errorf("time_limit_ms must not be negative")
	}
	if o.NodeLimit < 0 {
		return fmt.Errorf("node_limit must not be negative")
	}
	for i, g := range o.SamePlatformGroups {
		if len(g) < 2 {
			return fmt.Errorf("same_platform_groups[%d] needs at least two phases", i)
		}
	}
	return nil
}

// LoadOptions loads Options from a JSON or YAML file.
func LoadOptions(path string) (Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return Options{}, err
	}
	defer func() { _ = f.Close() }()
	return DecodeOptions(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// DecodeOptions reads Options from r in the given format.
func DecodeOptions(r io.Reader, format string) (Options, error) {
	var opts Options
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&opts); err != nil {
			return opts, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&opts); err != nil {
			return opts, err
		}
	default:
		return opts, fmt.Errorf("unsupported format: %s", format)
	}
	return opts, opts.Validate()
}
