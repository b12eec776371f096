// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/pluttan/volumes/internal/expr"
)

// buildStepEnv builds the child environment with precedence, lowest first:
//  1. base (the host environment when nil)
//  2. invocation overrides (KEY=value arguments)
//
// The result is sorted for reproducible child environments.
func buildStepEnv(base []string, overrides expr.Vars) []string {
	if base == nil {
		base = os.Environ()
	}
	env := make(map[string]string, len(base)+len(overrides))
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	maps.Copy(env, overrides)

	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}
