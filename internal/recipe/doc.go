// SPDX-License-Identifier: MPL-2.0

// Package recipe parses make-style recipe documents into a task graph.
//
// The parser is a small line-oriented state machine (Idle, PendingDescription,
// InTarget) fed with logical lines, where backslash-newline continuations have
// already been joined. Variable assignments are expanded eagerly with an
// [expr.Evaluator]; step commands are kept unexpanded so invocation overrides
// can take effect at run time.
//
// Only structural errors are fatal: an unterminated `{` step group or an
// unterminated define block yields a [taskgraph.MalformedRecipeError]. Every
// other unrecognized line is skipped.
package recipe
