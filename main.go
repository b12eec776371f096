// SPDX-License-Identifier: MPL-2.0

// vol runs tasks from task tables, Makefile-style recipes and annotated
// shell scripts with a live terminal view.
package main

import cmd "github.com/pluttan/volumes/cmd/vol"

func main() {
	cmd.Execute()
}
