package textutil

import (
	"regexp"
	"strings"
)

// fillerPattern matches filler words common in spoken lectures.
var fillerPattern = regexp.MustCompile(`(?i)\b(uh+|um+|basically|you know|actually|like|right|okay|so|well|i mean|kind of|sort of)\b`)

var multiSpacePattern = regexp.MustCompile(` {2,}`)

// CleanTranscript removes filler words and normalizes whitespace.
func CleanTranscript(text string) string {
	cleaned := fillerPattern.ReplaceAllString(text, "")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// SplitSentences breaks text on sentence boundaries, dropping empties.
func SplitSentences(text string) []string {
	parts := strings.Split(text, ". ")
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sentences = append(sentences, part)
	}
	return sentences
}
