package hxmount

import (
	"reflect"
	"testing"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		in      string
		want    Condition
		wantErr bool
	}{
		{in: "direct", want: CondDirect},
		{in: "directly", want: CondDirect},
		{in: "inViewport", want: CondInViewport},
		{in: "INVIEWPORT", want: CondInViewport},
		{in: " visible ", want: CondVisible},
		{in: "stylesheetReady", want: CondStylesheetReady},
		{in: "later", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCondition(tt.in)
			if tt.wantErr {
				if !IsConfigError(err) {
					t.Fatalf("ParseCondition(%q) error = %v, want a config error", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCondition(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMountPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want MountPolicy
	}{
		{in: "direct", want: MountPolicy{CondDirect}},
		{in: "inViewport, interact", want: MountPolicy{CondInViewport, CondInteract}},
		{in: "inViewport inViewport", want: MountPolicy{CondInViewport}},
		{in: "", want: nil},
	}
	for _, tt := range tests {
		got, err := ParseMountPolicy(tt.in)
		if err != nil {
			t.Fatalf("ParseMountPolicy(%q): %v", tt.in, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseMountPolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseMountPolicy("inViewport,soon"); !IsConfigError(err) {
		t.Errorf("unknown condition error = %v, want a config error", err)
	}
}

func TestMountPolicyIsImmediate(t *testing.T) {
	tests := []struct {
		p    MountPolicy
		want bool
	}{
		{p: nil, want: true},
		{p: Immediate, want: true},
		{p: MountPolicy{CondInViewport, CondDirect}, want: true},
		{p: ViewportProximity, want: false},
		{p: MountPolicy{CondVisible}, want: false},
	}
	for _, tt := range tests {
		if got := tt.p.IsImmediate(); got != tt.want {
			t.Errorf("%v.IsImmediate() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestMountPolicyString(t *testing.T) {
	if got := MountPolicy(nil).String(); got != "direct" {
		t.Errorf("empty policy = %q, want direct", got)
	}
	if got := (MountPolicy{CondInViewport, CondInteract}).String(); got != "inViewport,interact" {
		t.Errorf("String() = %q", got)
	}
	if !ViewportProximity.Needs(CondInViewport) || ViewportProximity.Needs(CondDirect) {
		t.Error("Needs mismatch")
	}
}

func TestGateFromConditions(t *testing.T) {
	gate, err := gateFromConditions(nil)
	if err != nil || gate != GateAlways {
		t.Errorf("empty = %v, %v; want always", gate, err)
	}
	gate, err = gateFromConditions([]string{"inViewport"})
	if err != nil || gate != GateRequireViewport {
		t.Errorf("inViewport = %v, %v; want inViewport", gate, err)
	}
	if _, err := gateFromConditions([]string{"visible"}); !IsConfigError(err) {
		t.Errorf("visible error = %v, want a config error", err)
	}
	if GateRequireViewport.String() != "inViewport" || GateAlways.String() != "always" {
		t.Error("unexpected gate names")
	}
}
