package hxmount

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSatisfyMountsOnce(t *testing.T) {
	inj := &countingInjector{}
	reg := NewRegistry(
		WithLogger(discardLogger()),
		WithScheduler(never),
		WithInjector(inj),
	)

	var hooks, renders atomic.Int32
	c, err := New(reg, newFakeElement("my-card"),
		WithStyles(".my-card{}"),
		WithMounter(MounterFunc(func(context.Context, *Component) error {
			hooks.Add(1)
			return nil
		})),
		WithRenderer(RendererFunc(func(context.Context) error {
			renders.Add(1)
			return nil
		})),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Disconnect)

	c.mu.Lock()
	g := c.gen
	c.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.satisfy(g)
		}()
	}
	wg.Wait()

	if err := c.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n := hooks.Load(); n != 1 {
		t.Errorf("mount hook ran %d times, want 1", n)
	}
	if n := renders.Load(); n != 1 {
		t.Errorf("first render requested %d times, want 1", n)
	}
	if n := inj.count("my-card"); n != 1 {
		t.Errorf("styles injected %d times, want 1", n)
	}
}

func TestSatisfyIgnoresStaleGeneration(t *testing.T) {
	reg := NewRegistry(WithLogger(discardLogger()), WithScheduler(never))

	var hooks atomic.Int32
	c, err := New(reg, newFakeElement("my-card"),
		WithMounter(MounterFunc(func(context.Context, *Component) error {
			hooks.Add(1)
			return nil
		})),
	)
	if err != nil {
		t.Fatal(err)
	}

	c.mu.Lock()
	stale := c.gen
	c.mu.Unlock()

	c.Disconnect()
	c.Connect()
	t.Cleanup(c.Disconnect)

	c.satisfy(stale)

	if n := hooks.Load(); n != 0 {
		t.Errorf("stale generation mounted, hook ran %d times", n)
	}
	if s := c.Status(); s != StatusAwaiting {
		t.Errorf("status = %s, want awaiting", s)
	}
}

func TestMountAddsClasses(t *testing.T) {
	reg := NewRegistry(WithLogger(discardLogger()), WithScheduler(never))
	reg.Defaults.Set(Props{PropLnf: true}, "my-card")

	el := newFakeElement("my-card")
	c, err := New(reg, el, WithName("Card"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Disconnect)

	c.mu.Lock()
	g := c.gen
	c.mu.Unlock()
	c.satisfy(g)

	want := []string{"my-card", "card", "-lnf"}
	el.mu.Lock()
	got := el.classes
	el.mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("classes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("classes = %v, want %v", got, want)
		}
	}
	if v, _ := el.Attribute("mounted"); v != "true" {
		t.Errorf("mounted attribute = %q, want true", v)
	}
}
