// Package codec turns the relay's pseudo-structured text payloads into
// human-readable strings. All functions are best-effort: input that does not
// match the expected shape comes back unchanged, never as an error.
package codec

import (
	"regexp"
	"strings"
)

// Matches the relay metadata prefix in both of its observed forms:
//
//	/data2/25//WU/        (standard)
//	/data2/19/1/NE/       (logon/acceptance, numbered MRN)
var metadataPrefix = regexp.MustCompile(`^/data\d+/\d+(?:/\d+/\w+/|//\w+/)`)

// ExtractContent strips the leading metadata prefix from a raw payload and
// returns the remainder verbatim. Payloads without a prefix pass through.
func ExtractContent(raw string) string {
	return metadataPrefix.ReplaceAllString(raw, "")
}

// CompactForList flattens a payload onto a single line by replacing the `@`
// field separators with spaces. Idempotent.
func CompactForList(text string) string {
	return strings.ReplaceAll(text, "@", " ")
}

// ReflowForDetail splits a payload on its `@` separators and reassembles it
// into display lines. A line ending in `.` or `,` is closed; a segment
// starting with `.` or `,` is glued onto the current line before closing it;
// any other segment starts a line of its own. Empty segments are dropped.
func ReflowForDetail(text string) string {
	segments := strings.Split(text, "@")
	if len(segments) == 0 {
		return text
	}

	var lines []string
	current := strings.TrimSpace(segments[0])

	for _, segment := range segments[1:] {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		switch {
		case current != "" && endsWithPunctuation(current):
			lines = append(lines, current)
			current = segment
		case startsWithPunctuation(segment):
			current += segment
			lines = append(lines, current)
			current = ""
		default:
			if current != "" {
				lines = append(lines, current)
			}
			current = segment
		}
	}

	if current != "" {
		lines = append(lines, current)
	}

	if len(lines) == 0 {
		return text
	}

	return strings.Join(lines, "\n")
}

func endsWithPunctuation(s string) bool {
	c := s[len(s)-1]
	return c == '.' || c == ','
}

func startsWithPunctuation(s string) bool {
	c := s[0]
	return c == '.' || c == ','
}
