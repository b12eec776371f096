// SPDX-License-Identifier: MPL-2.0

package table

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pluttan/volumes/pkg/taskgraph"
)

// parseYAML decodes a YAML task table keeping the document order of tasks.
func parseYAML(path string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &taskgraph.MalformedRecipeError{Path: path, Reason: err.Error()}
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return buildDocument(path, FormatYAML, nil)
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &taskgraph.MalformedRecipeError{Path: path, Line: top.Line, Reason: "top level must be a mapping of task names"}
	}

	entries := make([]entry, 0, len(top.Content)/2)
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		var v any
		if err := val.Decode(&v); err != nil {
			return nil, &taskgraph.MalformedRecipeError{Path: path, Line: val.Line, Reason: fmt.Sprintf("task %q: %v", key.Value, err)}
		}
		entries = append(entries, entry{name: key.Value, value: v})
	}
	return buildDocument(path, FormatYAML, entries)
}
