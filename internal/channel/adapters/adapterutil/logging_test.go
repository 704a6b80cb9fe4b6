package adapterutil

import (
	"strings"
	"testing"
)

func TestSummarizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"short", " hello\n\nworld ", "hello world"},
		{"long", strings.Repeat("é", 130), strings.Repeat("é", 120) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SummarizeText(tt.in); got != tt.want {
				t.Errorf("SummarizeText() = %q, want %q", got, tt.want)
			}
		})
	}
}
