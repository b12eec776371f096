// SPDX-License-Identifier: MPL-2.0

package config

import (
	"maps"
	"slices"
	"strings"
)

const (
	ThemeDefault    ColorTheme = "default"
	ThemeCatppuccin ColorTheme = "catppuccin"
	ThemeMonokai    ColorTheme = "monokai"
	ThemeDracula    ColorTheme = "dracula"
	ThemeNord       ColorTheme = "nord"
)

var presets = map[ColorTheme]Theme{
	ThemeDefault: {
		Wait: "4", OK: "2", Warn: "3", Error: "1", Info: "6",
		Header: "6", MainBar: "2", SubBar: "4", PanelBorder: "4",
	},
	ThemeCatppuccin: {
		Wait: "#89b4fa", OK: "#a6e3a1", Warn: "#f9e2af", Error: "#f38ba8", Info: "#94e2d5",
		Header: "#cba6f7", MainBar: "#a6e3a1", SubBar: "#89b4fa", PanelBorder: "#6c7086",
	},
	ThemeMonokai: {
		Wait: "#66d9ef", OK: "#a6e22e", Warn: "#e6db74", Error: "#f92672", Info: "#ae81ff",
		Header: "#fd971f", MainBar: "#a6e22e", SubBar: "#66d9ef", PanelBorder: "#75715e",
	},
	ThemeDracula: {
		Wait: "#8be9fd", OK: "#50fa7b", Warn: "#f1fa8c", Error: "#ff5555", Info: "#bd93f9",
		Header: "#ff79c6", MainBar: "#50fa7b", SubBar: "#8be9fd", PanelBorder: "#6272a4",
	},
	ThemeNord: {
		Wait: "#81a1c1", OK: "#a3be8c", Warn: "#ebcb8b", Error: "#bf616a", Info: "#88c0d0",
		Header: "#b48ead", MainBar: "#a3be8c", SubBar: "#81a1c1", PanelBorder: "#4c566a",
	},
}

// Presets returns the built-in color theme names in sorted order.
func Presets() []ColorTheme {
	return slices.Sorted(maps.Keys(presets))
}

// PresetTheme returns the colors of a built-in preset.
func PresetTheme(name ColorTheme) (Theme, bool) {
	t, ok := presets[name]
	return t, ok
}

// Overlay returns t with every non-empty entry of explicit applied on top.
func (t Theme) Overlay(explicit Theme) Theme {
	pick := func(base, override string) string {
		if strings.TrimSpace(override) != "" {
			return override
		}
		return base
	}
	return Theme{
		Wait:        pick(t.Wait, explicit.Wait),
		OK:          pick(t.OK, explicit.OK),
		Warn:        pick(t.Warn, explicit.Warn),
		Error:       pick(t.Error, explicit.Error),
		Info:        pick(t.Info, explicit.Info),
		Header:      pick(t.Header, explicit.Header),
		MainBar:     pick(t.MainBar, explicit.MainBar),
		SubBar:      pick(t.SubBar, explicit.SubBar),
		PanelBorder: pick(t.PanelBorder, explicit.PanelBorder),
	}
}

func joinThemes() string {
	names := Presets()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return strings.Join(out, ", ")
}
