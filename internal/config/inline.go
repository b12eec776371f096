// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// InlineBlockStart opens an inline config block in a Makefile or script.
	InlineBlockStart = "#--config:"
	// InlineBlockEnd closes an inline config block.
	InlineBlockEnd = "#--end"
)

// ParseInlineBlock extracts and decodes the first inline config block of a
// document. Each line inside the block has its leading '#' removed and the
// result is decoded as TOML:
//
//	#--config:
//	#show_header = false
//	#[theme]
//	#ok = "#a6e3a1"
//	#--end
//
// It reports false when the document has no complete block.
func ParseInlineBlock(content string) (map[string]any, bool, error) {
	start := strings.Index(content, InlineBlockStart)
	if start < 0 {
		return nil, false, nil
	}
	body := content[start+len(InlineBlockStart):]
	end := strings.Index(body, InlineBlockEnd)
	if end < 0 {
		return nil, false, nil
	}

	var lines []string
	for line := range strings.SplitSeq(body[:end], "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			lines = append(lines, trimmed[1:])
		case trimmed == "":
			lines = append(lines, "")
		}
	}

	values := make(map[string]any)
	if err := toml.Unmarshal([]byte(strings.Join(lines, "\n")), &values); err != nil {
		return nil, true, fmt.Errorf("inline config block: %w", err)
	}
	return values, true, nil
}

// ReadInlineBlock reads path and decodes its inline config block.
func ReadInlineBlock(path string) (map[string]any, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	values, found, err := ParseInlineBlock(string(data))
	if err != nil {
		return nil, found, fmt.Errorf("%s: %w", path, err)
	}
	return values, found, nil
}
