package hxmount

import (
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func eventTypes(events []*Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestDispatchPrefixed(t *testing.T) {
	c, el := newTestComponent("my-widget", WithInternalName("widget"))
	detail := map[string]any{"count": 2}

	if ok := c.Dispatch("ready", Detail(detail)); !ok {
		t.Fatal("Dispatch reported cancellation without listeners canceling")
	}

	events := el.dispatched()
	if got, want := eventTypes(events), []string{"widget.ready", "widget"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	if reflect.ValueOf(events[0].Detail).Pointer() != reflect.ValueOf(detail).Pointer() {
		t.Error("first event should carry the caller's detail map")
	}
	if got := events[1].Detail[DetailEventType]; got != "ready" {
		t.Errorf("eventType = %v, want ready", got)
	}
	if got := events[1].Detail["count"]; got != 2 {
		t.Errorf("second event lost detail: %v", events[1].Detail)
	}
	if _, ok := detail[DetailEventType]; ok {
		t.Error("caller's detail map was mutated")
	}
}

func TestDispatchUnprefixed(t *testing.T) {
	c, el := newTestComponent("my-widget", WithInternalName("widget"), WithPrefixEvents(false))

	c.Dispatch("ready")

	events := el.dispatched()
	if got, want := eventTypes(events), []string{"widget", "ready"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	if got := events[0].Detail[DetailEventType]; got != "ready" {
		t.Errorf("eventType = %v, want ready", got)
	}
	if got := events[1].Detail[DetailEventComponent]; got != "widget" {
		t.Errorf("eventComponent = %v, want widget", got)
	}
}

func TestDispatchUsesInternalName(t *testing.T) {
	c, el := newTestComponent("my-widget", WithName("Display"))

	c.Dispatch("open")

	if got, want := eventTypes(el.dispatched()), []string{"my-widget.open", "my-widget"}; !reflect.DeepEqual(got, want) {
		t.Errorf("event types = %v, want %v", got, want)
	}
}

func TestDispatchOptions(t *testing.T) {
	c, host := newTestComponent("my-widget")
	other := newFakeElement("other")

	c.Dispatch("close", Target(other), Bubbles(false), Cancelable(false))

	if n := len(host.dispatched()); n != 0 {
		t.Errorf("host received %d events, want 0", n)
	}
	events := other.dispatched()
	if len(events) != 2 {
		t.Fatalf("target received %d events, want 2", len(events))
	}
	for _, ev := range events {
		if ev.Bubbles || ev.Cancelable {
			t.Errorf("%s: bubbles=%v cancelable=%v, want both false", ev.Type, ev.Bubbles, ev.Cancelable)
		}
		if ev.Target != other {
			t.Errorf("%s: target is not the override", ev.Type)
		}
	}
}

func TestDispatchDefaults(t *testing.T) {
	c, el := newTestComponent("my-widget")

	c.Dispatch("ready")

	for _, ev := range el.dispatched() {
		if !ev.Bubbles || !ev.Cancelable {
			t.Errorf("%s: bubbles=%v cancelable=%v, want both true", ev.Type, ev.Bubbles, ev.Cancelable)
		}
		if ev.Detail == nil {
			t.Errorf("%s: nil detail", ev.Type)
		}
	}
}

func TestDispatchCanceled(t *testing.T) {
	c, el := newTestComponent("my-widget")
	el.prevent = true

	if c.Dispatch("submit") {
		t.Error("Dispatch should report cancellation")
	}
	if n := len(el.dispatched()); n != 2 {
		t.Errorf("all events should still be dispatched, got %d", n)
	}
}

func TestDispatchNotCancelable(t *testing.T) {
	c, el := newTestComponent("my-widget")
	el.prevent = true

	if !c.Dispatch("submit", Cancelable(false)) {
		t.Error("non-cancelable events can not be canceled")
	}
}

func TestDispatchMetrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m, err := NewMetrics(promReg)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := newTestComponent("my-widget")
	c.reg.metrics = m

	c.Dispatch("a")
	c.Dispatch("b")

	if got := testutil.ToFloat64(m.Events.WithLabelValues("my-widget")); got != 4 {
		t.Errorf("events_dispatched_total = %v, want 4", got)
	}
}
