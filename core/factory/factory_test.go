package factory

import (
	"strings"
	"testing"
)

type sink struct{ Interval int }

type sinkConf struct {
	Interval int `json:"interval"`
}

func registerSink(t *testing.T, reg *Registry[*sink], name string) {
	t.Helper()
	err := reg.Register(name, func(conf map[string]any) (*sink, error) {
		var c sinkConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sink{Interval: c.Interval}, nil
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sink]()
	registerSink(t, reg, "memory")

	inst, err := reg.Create(ModuleConfig{Type: "memory", Conf: map[string]any{"interval": 5}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Interval != 5 {
		t.Fatalf("expected 5 got %d", inst.Interval)
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[*sink]()
	registerSink(t, reg, "sqlite")
	registerSink(t, reg, "influx")
	registerSink(t, reg, "prometheus")

	names := reg.Names()
	want := []string{"influx", "prometheus", "sqlite"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want sorted %v", names, want)
		}
	}
}

func TestRegistry_UnknownTypeListsRegistered(t *testing.T) {
	reg := NewRegistry[*sink]()
	registerSink(t, reg, "influx")
	registerSink(t, reg, "prometheus")

	_, err := reg.Create(ModuleConfig{Type: "statsd"})
	if err == nil {
		t.Fatal("expected unknown type error")
	}
	if !strings.Contains(err.Error(), `"statsd"`) {
		t.Errorf("error does not name the unknown type: %v", err)
	}
	if !strings.Contains(err.Error(), "influx, prometheus") {
		t.Errorf("error does not list registered types: %v", err)
	}
}

func TestRegistry_RegisterErrors(t *testing.T) {
	reg := NewRegistry[*sink]()
	registerSink(t, reg, "memory")

	if err := reg.Register("memory", func(map[string]any) (*sink, error) { return nil, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("nilfactory", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
}
