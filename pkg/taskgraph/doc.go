// SPDX-License-Identifier: MPL-2.0

// Package taskgraph defines the task model shared by every vol front-end.
//
// Recipes (Makefile-style documents), task tables (TOML, YAML, HCL) and
// volumes scripts are all parsed into a Graph: named tasks, each with ordered
// dependencies and ordered steps. A Graph is built once by a parser and is
// treated as read-only afterwards by the resolver and the execution engine.
package taskgraph
