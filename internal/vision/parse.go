package vision

import (
	"strings"
)

// CleanResponse strips the chatter models tend to wrap around an answer:
// leading preamble lines, markdown emphasis and surrounding quotes.
func CleanResponse(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	start := 0
	for start < len(lines) {
		line := strings.TrimSpace(lines[start])
		if line == "" || isPreamble(line) {
			start++
			continue
		}
		break
	}

	out := strings.TrimSpace(strings.Join(lines[start:], "\n"))
	out = strings.ReplaceAll(out, "**", "")
	if len(out) >= 2 && strings.HasPrefix(out, `"`) && strings.HasSuffix(out, `"`) {
		out = strings.TrimSpace(out[1 : len(out)-1])
	}
	return out
}

// isPreamble reports whether line is an introduction rather than content.
// Only lines ending in a colon count, so a real description starting with
// "Here" is kept.
func isPreamble(line string) bool {
	if !strings.HasSuffix(line, ":") {
		return false
	}
	for _, p := range []string{"Here", "Sure", "Certainly", "Based on", "I see"} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
