package hxmount

import (
	"strings"
)

// Cls returns component ready class names.
//
// With an empty suffix it returns the base tokens: the tag, the internal
// name and the display name, deduplicated. Otherwise every space separated
// segment of suffix produces one token per base name, in that order:
//
//	c.Cls("")             // "my-card"
//	c.Cls("title")        // "my-card-title"
//	c.Cls("__icon")       // "my-card__icon"
//	c.Cls("title body")   // "my-card-title my-card-body"
//
// Extra style classes are appended unchanged.
func (c *Component) Cls(suffix string, style ...string) string {
	bases := c.baseNames()
	segments := strings.Fields(suffix)

	var tokens []string
	if len(segments) == 0 {
		tokens = bases
	} else {
		for _, seg := range segments {
			for _, base := range bases {
				tokens = append(tokens, joinClass(base, seg))
			}
		}
	}
	for _, s := range style {
		tokens = append(tokens, strings.Fields(s)...)
	}
	return strings.Join(dedupe(tokens), " ")
}

// InternalCls returns a class built on the internal name only. It is the
// form used to query elements a component decorated with Cls.
func (c *Component) InternalCls(suffix string) string {
	internal := c.Config().InternalName
	if suffix == "" {
		return internal
	}
	return joinClass(internal, suffix)
}

// baseNames returns the tag, the internal name and the display name in
// that order, skipping empty and repeated names.
func (c *Component) baseNames() []string {
	cfg := c.Config()
	names := []string{c.tag}
	if cfg.InternalName != "" {
		names = append(names, strings.ToLower(cfg.InternalName))
	}
	if cfg.Name != "" {
		names = append(names, strings.ToLower(cfg.Name))
	}
	return dedupe(names)
}

// joinClass joins base and segment with a "-" unless the segment already
// starts with "_" or "-", then collapses every "---" into "--".
func joinClass(base, seg string) string {
	sep := "-"
	if strings.HasPrefix(seg, "_") || strings.HasPrefix(seg, "-") {
		sep = ""
	}
	return collapseDashes(base + sep + seg)
}

func collapseDashes(s string) string {
	for strings.Contains(s, "---") {
		s = strings.ReplaceAll(s, "---", "--")
	}
	return s
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
