// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"bufio"
	"io"
	"strings"
)

// maxLineSize bounds a single physical line.
const maxLineSize = 1 << 20

// logicalLine is one line after continuation joining. Number is the 1-based
// physical line the logical line starts on.
type logicalLine struct {
	Text   string
	Number int
}

// readLogicalLines reads src and joins lines ending in a backslash with the
// line that follows. The backslash is dropped and the next line's text is
// appended as is.
func readLogicalLines(src io.Reader) ([]logicalLine, error) {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		lines   []logicalLine
		pending strings.Builder
		start   int
		n       int
		joining bool
	)
	for sc.Scan() {
		n++
		raw := strings.TrimSuffix(sc.Text(), "\r")
		if !joining {
			start = n
		}
		trimmed := strings.TrimRight(raw, " \t")
		if strings.HasSuffix(trimmed, `\`) {
			pending.WriteString(strings.TrimSuffix(trimmed, `\`))
			joining = true
			continue
		}
		pending.WriteString(raw)
		lines = append(lines, logicalLine{Text: pending.String(), Number: start})
		pending.Reset()
		joining = false
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if joining {
		lines = append(lines, logicalLine{Text: pending.String(), Number: start})
	}
	return lines, nil
}
