// SPDX-License-Identifier: MPL-2.0

package recipe

import "strings"

type stepPrefix struct {
	silent bool
	ignore bool
}

// stripPrefixes removes any combination of the '@' (silent), '-' (ignore
// errors) and '+' markers from the start of a step line.
func stripPrefixes(text string) (string, stepPrefix) {
	var p stepPrefix
	for text != "" {
		switch text[0] {
		case '@':
			p.silent = true
		case '-':
			p.ignore = true
		case '+':
		default:
			return text, p
		}
		text = strings.TrimLeft(text[1:], " \t")
	}
	return text, p
}

// SplitComment splits a command line at its comment marker. A '#' starts a
// comment when it is the first byte or follows whitespace, and is not inside
// single or double quotes. found reports whether a marker was present.
func SplitComment(text string) (command, comment string, found bool) {
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' && i+1 < len(text) {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
		case c == '\\' && i+1 < len(text):
			i++
		case c == '\'' || c == '"':
			quote = c
		case c == '#' && (i == 0 || text[i-1] == ' ' || text[i-1] == '\t'):
			return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:]), true
		}
	}
	return strings.TrimSpace(text), "", false
}
