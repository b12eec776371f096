// SPDX-License-Identifier: MPL-2.0

// Package config handles vol's layered UI and engine configuration using Viper,
// with CUE as the user config file format.
//
// Layers apply lowest to highest: built-in defaults, the user config file
// (config.cue in the platform config directory, validated against the embedded
// #Config schema in config_schema.cue), the [config] section of a task table,
// an inline #--config: block of a Makefile or script, VOL_* environment
// variables and finally explicit overrides from CLI flags.
package config
