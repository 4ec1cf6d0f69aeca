package output

import (
	"regexp"
	"strings"
)

// fencedBlock matches an answer that is exactly one fenced code block,
// optionally tagged with a language.
var fencedBlock = regexp.MustCompile("(?s)\\A```[a-zA-Z0-9_+.-]*\r?\n(.*?)\r?\n?```\\z")

// StripFences returns the inner code when the whole answer is a single fenced
// code block; otherwise the answer is returned unchanged.
func StripFences(answer string) string {
	trimmed := strings.TrimSpace(answer)
	if match := fencedBlock.FindStringSubmatch(trimmed); match != nil {
		return match[1]
	}
	return answer
}
