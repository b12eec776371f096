// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by vol's tests: a controllable
// clock for deterministic timestamps and elapsed labels, and file fixtures
// written into per-test temporary directories.
package testutil
