package hxmount

import (
	"fmt"
	"slices"
	"strings"
)

// Condition names something a component can wait for before mounting.
type Condition string

// Known conditions. CondDirect resolves on the next scheduler tick and
// CondInViewport on the first viewport entry reported by the tracker; the
// others are evaluated by the registry's ConditionWaiter.
const (
	CondDirect          Condition = "direct"
	CondInViewport      Condition = "inViewport"
	CondNearViewport    Condition = "nearViewport"
	CondOutOfViewport   Condition = "outOfViewport"
	CondVisible         Condition = "visible"
	CondInteract        Condition = "interact"
	CondStylesheetReady Condition = "stylesheetReady"
)

var knownConditions = map[string]Condition{
	"direct":          CondDirect,
	"directly":        CondDirect,
	"inviewport":      CondInViewport,
	"nearviewport":    CondNearViewport,
	"outofviewport":   CondOutOfViewport,
	"visible":         CondVisible,
	"interact":        CondInteract,
	"stylesheetready": CondStylesheetReady,
}

// ParseCondition resolves a condition name, case-insensitively. "directly"
// is accepted as an alias of "direct".
func ParseCondition(s string) (Condition, error) {
	c, ok := knownConditions[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: unknown mount condition %q", ErrInvalidConfig, s)
	}
	return c, nil
}

// MountPolicy is the list of conditions that must all hold before a
// component mounts. An empty policy behaves like Immediate.
type MountPolicy []Condition

// Immediate mounts on the next scheduler tick.
var Immediate = MountPolicy{CondDirect}

// ViewportProximity mounts on the first viewport entry.
var ViewportProximity = MountPolicy{CondInViewport}

// ParseMountPolicy parses a comma or space separated list of conditions.
func ParseMountPolicy(s string) (MountPolicy, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	return parseConditions(fields)
}

func parseConditions(names []string) (MountPolicy, error) {
	var p MountPolicy
	for _, name := range names {
		c, err := ParseCondition(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(p, c) {
			p = append(p, c)
		}
	}
	return p, nil
}

// IsImmediate reports whether the policy resolves without waiting for any
// external signal. Direct wins over every other listed condition.
func (p MountPolicy) IsImmediate() bool {
	return len(p) == 0 || slices.Contains(p, CondDirect)
}

// Needs reports whether the policy lists c.
func (p MountPolicy) Needs(c Condition) bool {
	return slices.Contains(p, c)
}

// String joins the policy conditions with commas.
func (p MountPolicy) String() string {
	if len(p) == 0 {
		return string(CondDirect)
	}
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// ActivationGate decides whether IsActive depends on viewport presence.
type ActivationGate int

const (
	// GateAlways keeps the component active regardless of visibility.
	GateAlways ActivationGate = iota
	// GateRequireViewport makes the component inactive while out of the viewport.
	GateRequireViewport
)

// String returns the string representation of the gate.
func (g ActivationGate) String() string {
	switch g {
	case GateAlways:
		return "always"
	case GateRequireViewport:
		return "inViewport"
	default:
		return "unknown"
	}
}

func gateFromConditions(conds []string) (ActivationGate, error) {
	gate := GateAlways
	for _, name := range conds {
		c, err := ParseCondition(name)
		if err != nil {
			return GateAlways, err
		}
		if c != CondInViewport {
			return GateAlways, fmt.Errorf("%w: activeWhen only supports %q, got %q", ErrInvalidConfig, CondInViewport, name)
		}
		gate = GateRequireViewport
	}
	return gate, nil
}
