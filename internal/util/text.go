package util

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	webURL     = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"]+`)
)

// trailing punctuation that closes a sentence rather than the URL
const urlTrim = `.,;:!?)]}'`

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// ExtractURLs returns the distinct http(s) URLs in s in first-seen order.
func ExtractURLs(s string) []string {
	found := webURL.FindAllString(s, -1)
	urls := lo.FilterMap(found, func(u string, _ int) (string, bool) {
		u = strings.TrimRight(u, urlTrim)
		return u, !strings.HasSuffix(u, "://")
	})
	return lo.Uniq(urls)
}

// RuneCount is the length of s in code points.
func RuneCount(s string) int { return utf8.RuneCountInString(s) }

// Truncate cuts s to at most n code points.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
