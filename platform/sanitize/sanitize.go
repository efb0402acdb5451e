// Package sanitize provides text sanitization utilities for storage and prompt rendering.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	userDataBegin = "<<<BEGIN_USER_DATA>>>"
	userDataEnd   = "<<<END_USER_DATA>>>"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// ForPrompt prepares untrusted text for inclusion in a model prompt: HTML and control
// characters (except newlines and tabs) are removed and the result is truncated to maxLen runes.
func ForPrompt(s string, maxLen int) string {
	var sb strings.Builder
	for _, r := range StripHTML(s) {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sb.WriteRune(r)
	}
	result := sb.String()
	runes := []rune(result)
	if maxLen > 0 && len(runes) > maxLen {
		result = string(runes[:maxLen]) + "... [truncated]"
	}
	return result
}

// WrapUserData wraps user-provided content with markers to isolate it from instructions.
func WrapUserData(content string) string {
	return fmt.Sprintf("%s\n%s\n%s", userDataBegin, content, userDataEnd)
}
