// SPDX-License-Identifier: MPL-2.0

// Package table loads structured task tables (vol.toml, vol.yaml, vol.hcl)
// into a task graph.
//
// In TOML and YAML every top-level table except config (or the legacy
// settings) is a task:
//
//	[build]
//	description = "Build everything"
//	depends = ["generate"]
//	commands = [
//	    "go build ./...",
//	    { cmd = "go vet ./...", desc = "Vet", ignore_errors = true },
//	]
//
// HCL files use labelled task blocks and an optional config block:
//
//	task "build" {
//	  depends  = ["generate"]
//	  commands = ["go build -o ${env.HOME}/bin/app ."]
//	  step {
//	    cmd  = "go vet ./..."
//	    desc = "Vet"
//	  }
//	}
package table
