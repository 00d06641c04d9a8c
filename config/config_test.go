package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/killchain/core/model"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `scheduler:
  max_horizon: 500
  time_limit_ms: 2000
  same_platform_groups:
    - [5, 6, 7]
solver:
  concurrency: 4
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  use_tls: false
metrics:
  sinks:
    - type: "nop"
runlog:
  backend: "sqlite"
  path: "runs.db"
cache:
  enabled: true
  addr: "redis:6379"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"max_horizon", cfg.Scheduler.MaxHorizon, int64(500)},
		{"time_limit_ms", cfg.Scheduler.TimeLimitMS, 2000},
		{"group", len(cfg.Scheduler.SamePlatformGroups) == 1 && len(cfg.Scheduler.SamePlatformGroups[0]) == 3, true},
		{"concurrency", cfg.Solver.Concurrency, 4},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"username", cfg.MQTT.Username, "user"},
		{"password", cfg.MQTT.Password, "pass"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "killchain"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"runlog.backend", cfg.RunLog.Backend, "sqlite"},
		{"runlog.path", cfg.RunLog.Path, "runs.db"},
		{"cache.addr", cfg.Cache.Addr, "redis:6379"},
		{"cache.ttl", cfg.Cache.TTLSeconds, 86400},
		{"sentry.environment", cfg.Sentry.Environment, "production"},
		{"chain", len(cfg.KillChain()), 14},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"scheduler": {"max_horizon": 10}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("K_SCHEDULER__MAX_HORIZON", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Scheduler.MaxHorizon != 42 {
		t.Fatalf("expected env override 42, got %d", cfg.Scheduler.MaxHorizon)
	}
	if cfg.RunLog.Backend != "jsonl" || cfg.RunLog.Path != "runs.jsonl" {
		t.Fatalf("runlog defaults not applied: %+v", cfg.RunLog)
	}
}

func TestLoadCustomChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `chain:
  - {id: 1, name: Find}
  - {id: 2, name: Engage}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	kc := cfg.KillChain()
	if len(kc) != 2 || kc[1] != (model.Phase{ID: 2, Name: "Engage"}) {
		t.Fatalf("unexpected chain %+v", kc)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"backend.yaml": "runlog:\n  backend: csv\n",
		"horizon.yaml": "scheduler:\n  max_horizon: -5\n",
		"broker.yaml":  "mqtt:\n  enabled: true\n",
		"chain.yaml":   "chain:\n  - {id: 2, name: b}\n  - {id: 1, name: a}\n",
		"config.toml":  "",
		"missing.yaml": "",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if name != "missing.yaml" {
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write %s: %v", name, err)
			}
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRunLogOptions(t *testing.T) {
	c := RunLogConfig{MaxSizeMB: 5}
	c.SetDefaults()
	opts := c.Options()
	if opts.Backend != "jsonl" || opts.Path != "runs.jsonl" || opts.MaxSizeMB != 5 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if err := (RunLogConfig{Backend: "jsonl", Path: "x", MaxBackups: -1}).Validate(); err == nil {
		t.Fatal("expected negative rotation error")
	}
}
