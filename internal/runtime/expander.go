// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"os"
	"strings"

	"github.com/pluttan/volumes/internal/expr"
)

type (
	// Expander expands step text against the run's variable table just before
	// the step is spawned. *expr.Evaluator implements it for recipes.
	Expander interface {
		ExpandContext(ctx context.Context, text string, vars expr.Vars) string
	}

	// EnvExpander expands $VAR and ${VAR} from the variable table, falling
	// back to the process environment. Unknown references, shell specials
	// such as $? or $1, and $$ are left for the shell.
	EnvExpander struct {
		// LookupEnv defaults to os.LookupEnv.
		LookupEnv func(string) (string, bool)
	}
)

// ExpandContext implements Expander.
func (x EnvExpander) ExpandContext(_ context.Context, text string, vars expr.Vars) string {
	if !strings.Contains(text, "$") {
		return text
	}
	lookup := x.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	resolve := func(name string) (string, bool) {
		if v, ok := vars[name]; ok {
			return v, true
		}
		return lookup(name)
	}

	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] != '$' || i+1 == len(text) {
			b.WriteByte(text[i])
			continue
		}
		if text[i+1] == '$' {
			b.WriteString("$$")
			i++
			continue
		}
		name, width := envRef(text[i+1:])
		if name == "" {
			b.WriteByte('$')
			continue
		}
		if v, ok := resolve(name); ok {
			b.WriteString(v)
		} else {
			b.WriteString(text[i : i+1+width])
		}
		i += width
	}
	return b.String()
}

// envRef parses the reference following a '$'. It returns the variable name
// and the number of bytes the reference occupies, or "" when s does not start
// with NAME or {NAME}.
func envRef(s string) (string, int) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 0 || !isName(s[1:end]) {
			return "", 0
		}
		return s[1:end], end + 1
	}
	n := 0
	for n < len(s) && isNameByte(s[n], n == 0) {
		n++
	}
	return s[:n], n
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameByte(s[i], i == 0) {
			return false
		}
	}
	return true
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		return true
	case !first && c >= '0' && c <= '9':
		return true
	}
	return false
}
