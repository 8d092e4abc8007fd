package factory

import (
	"testing"
	"time"
)

type sample struct {
	A       int
	Timeout time.Duration
}

type sampleConf struct {
	A       int           `json:"a"`
	Timeout time.Duration `json:"timeout"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	if err := reg.Register("s", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{A: c.A, Timeout: c.Timeout}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": "3", "timeout": "2s"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.A != 3 {
		t.Fatalf("expected 3 got %d", inst.A)
	}
	if inst.Timeout != 2*time.Second {
		t.Fatalf("expected 2s got %v", inst.Timeout)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", nil); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "y"}); err == nil {
		t.Fatal("expected unknown type error")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustRegister to panic on duplicate")
		}
	}()
	reg.MustRegister("x", func(map[string]any) (int, error) { return 2, nil })
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[int]()
	reg.MustRegister("b", func(map[string]any) (int, error) { return 0, nil })
	reg.MustRegister("a", func(map[string]any) (int, error) { return 0, nil })
	names := reg.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names %v", names)
	}
}
