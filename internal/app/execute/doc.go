// SPDX-License-Identifier: MPL-2.0

// Package execute turns a vol invocation into a finished run. It selects the
// front-end for the requested target (task table, make: recipe target or
// annotated script), layers the document's settings onto the user
// configuration, resolves the dependency order and drives the engine with a
// presenter and run log built from that configuration.
package execute
