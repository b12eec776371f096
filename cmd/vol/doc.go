// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the vol command tree.
//
// The root command runs a task table task, a make:<target> from a
// Makefile-style recipe or an annotated shell script. The list, validate and
// config subcommands inspect the available documents and the effective
// configuration.
package cmd
