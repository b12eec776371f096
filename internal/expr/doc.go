// SPDX-License-Identifier: MPL-2.0

// Package expr expands variable references and built-in text functions in
// Makefile-style text.
//
// Expansion is total: malformed function calls and unbound variables are left
// in place rather than reported, and nested expansion is bounded by an
// iteration limit so self-referential input cannot loop forever.
//
// Supported forms are $(NAME), ${NAME} and $(function args) / ${function args}
// for the functions listed in Functions. A doubled $$ yields a literal $.
package expr
