// SPDX-License-Identifier: MPL-2.0

package table

import (
	"errors"
	"maps"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/pluttan/volumes/pkg/taskgraph"
)

// parseTOML decodes a TOML task table. TOML tables are unordered once
// decoded, so tasks are listed in lexical order.
func parseTOML(path string, data []byte) (*Document, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		perr := &taskgraph.MalformedRecipeError{Path: path, Reason: err.Error()}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, _ = derr.Position()
		}
		return nil, perr
	}

	entries := make([]entry, 0, len(raw))
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		entries = append(entries, entry{name: name, value: raw[name]})
	}
	return buildDocument(path, FormatTOML, entries)
}
