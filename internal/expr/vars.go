// SPDX-License-Identifier: MPL-2.0

package expr

import (
	"maps"
	"slices"
	"strings"
)

// Vars is a variable table mapping names to already-expanded values.
type Vars map[string]string

// Clone returns a shallow copy of the table. A nil table clones to an empty one.
func (v Vars) Clone() Vars {
	out := make(Vars, len(v))
	maps.Copy(out, v)
	return out
}

// With returns a new table holding v overlaid with overrides.
// Entries in overrides win over entries in v.
func (v Vars) With(overrides Vars) Vars {
	out := v.Clone()
	maps.Copy(out, overrides)
	return out
}

// Lookup returns the value bound to name.
func (v Vars) Lookup(name string) (string, bool) {
	val, ok := v[name]
	return val, ok
}

// Environ renders the table as sorted KEY=value pairs.
func (v Vars) Environ() []string {
	out := make([]string, 0, len(v))
	for _, k := range slices.Sorted(maps.Keys(v)) {
		out = append(out, k+"="+v[k])
	}
	return out
}

// ParseAssignments splits invocation arguments into KEY=value overrides and the
// remaining positional arguments. The first '=' separates key from value, so
// values may themselves contain '='.
func ParseAssignments(args []string) (Vars, []string) {
	overrides := make(Vars)
	var rest []string
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || !isIdentifier(key) {
			rest = append(rest, arg)
			continue
		}
		overrides[key] = value
	}
	return overrides, rest
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
