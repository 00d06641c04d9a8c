package factory

import (
	"strings"
	"testing"
	"time"
)

type sink struct {
	URL     string
	Timeout time.Duration
}

type sinkConf struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
	Retries int           `json:"retries"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sink]()
	if err := reg.Register("influx", func(conf map[string]any) (*sink, error) {
		var c sinkConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sink{URL: c.URL, Timeout: c.Timeout}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "influx", Conf: map[string]any{"url": "http://influx:8086", "timeout": "2s"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.URL != "http://influx:8086" || inst.Timeout != 2*time.Second {
		t.Fatalf("unexpected sink %+v", inst)
	}
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("nop", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("nop", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("other", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	_, err := reg.Create(ModuleConfig{Type: "prometheus"})
	if err == nil || !strings.Contains(err.Error(), "known: nop") {
		t.Fatalf("expected unknown type error listing known types, got %v", err)
	}
}

func TestRegistry_Types(t *testing.T) {
	reg := NewRegistry[int]()
	for _, name := range []string{"prometheus", "influx", "nop"} {
		if err := reg.Register(name, func(map[string]any) (int, error) { return 0, nil }); err != nil {
			t.Fatal(err)
		}
	}
	if got := strings.Join(reg.Types(), ","); got != "influx,nop,prometheus" {
		t.Fatalf("types %s", got)
	}
}

func TestDecode_WeakTypes(t *testing.T) {
	var c sinkConf
	if err := Decode(map[string]any{"retries": "3", "timeout": "150ms"}, &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Retries != 3 || c.Timeout != 150*time.Millisecond {
		t.Fatalf("unexpected conf %+v", c)
	}
	if err := Decode(map[string]any{"retries": "many"}, &c); err == nil {
		t.Fatal("expected error for non numeric retries")
	}
}
