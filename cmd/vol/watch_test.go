// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestWatchIgnores(t *testing.T) {
	t.Parallel()

	abs, err := filepath.Abs(filepath.Join("logs", "vol.log"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "disabled", in: "", want: nil},
		{name: "relative", in: "./vol.log", want: []string{"vol.log"}},
		{name: "absolute", in: abs, want: []string{"logs/vol.log"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := watchIgnores(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("watchIgnores(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
