package logger

import "strings"

// Sanitize strips control characters from user-supplied strings before they
// reach a log line, preventing log injection via embedded newlines or
// terminal escapes. Each stripped rune is replaced with '?'.
func Sanitize(value string) string {
	if !strings.ContainsFunc(value, isControl) {
		return value
	}
	var sb strings.Builder
	sb.Grow(len(value))
	for _, r := range value {
		if isControl(r) {
			sb.WriteRune('?')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
