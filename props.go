package hxmount

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Props is a property bag keyed by property name.
type Props map[string]any

// Clone returns a shallow copy of p. A nil bag clones to an empty one.
func (p Props) Clone() Props {
	out := make(Props, len(p))
	maps.Copy(out, p)
	return out
}

// Merge copies every key of other over p, last write wins.
func (p Props) Merge(other Props) {
	maps.Copy(p, other)
}

// Keys returns the keys of p in sorted order.
func (p Props) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// PropString converts a bag value to a string.
func PropString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case fmt.Stringer:
		return x.String(), true
	default:
		return "", false
	}
}

// PropBool converts a bag value to a bool. Attribute style strings are
// accepted: "" and "true" are true, "false" is false.
func PropBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// PropInt converts a bag value to an int. YAML, JSON and msgpack decoders
// produce different numeric types, all of which are accepted.
func PropInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int8:
		return int(x), true
	case int16:
		return int(x), true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint8:
		return int(x), true
	case uint16:
		return int(x), true
	case uint32:
		return int(x), true
	case uint64:
		return int(x), true
	case float32:
		return int(x), float32(int(x)) == x
	case float64:
		return int(x), float64(int(x)) == x
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		return 0, false
	}
}

// PropFloat converts a bag value to a float64.
func PropFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	if n, ok := PropInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

// PropStrings converts a bag value to a string slice. A single string is
// split on commas and whitespace.
func PropStrings(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return slices.Clone(x), true
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		return strings.FieldsFunc(x, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}), true
	default:
		return nil, false
	}
}

// Base property keys understood by every component.
const (
	PropID          = "id"
	PropName        = "name"
	PropVerbose     = "verbose"
	PropPrefixEvent = "prefixEvent"
	PropActiveWhen  = "activeWhen"
	PropMountWhen   = "mountWhen"
	PropAdoptStyle  = "adoptStyle"
	PropSaveState   = "saveState"
	PropStateID     = "stateId"
	PropShadowDOM   = "shadowDom"
	PropLnf         = "lnf"
)

var baseProps = []string{
	PropID, PropName, PropVerbose, PropPrefixEvent, PropActiveWhen,
	PropMountWhen, PropAdoptStyle, PropSaveState, PropStateID,
	PropShadowDOM, PropLnf,
}
