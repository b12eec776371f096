// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// User configuration files are validated against an embedded schema before
// their contents are handed to the layered configuration loader:
//
//	values, err := cueutil.DecodeMap(schema, data, "#Config",
//	    cueutil.WithFilename("config.cue"))
//	if err != nil {
//	    return err // error carries the CUE path of the offending field
//	}
package cueutil
