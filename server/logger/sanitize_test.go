package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"newline", "line1\nline2", "line1?line2"},
		{"carriage return", "a\r\nb", "a??b"},
		{"ansi escape", "red\x1b[31mtext", "red?[31mtext"},
		{"delete char", "x\x7fy", "x?y"},
		{"unicode kept", "señor 東京", "señor 東京"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}
