package citation

import (
	"regexp"
	"strconv"
	"strings"
)

// Anchors are delimited by private-use runes. Model-written footnote syntax
// such as "[^4]" stays plain text.
const (
	anchorOpen  = '\uE000'
	anchorClose = '\uE001'
)

var anchorPattern = regexp.MustCompile("\\x{E000}([0-9]+)\\x{E001}")

// Anchor renders the cross-reference for the n-th cited passage (1-based).
// Anchors never match the marker grammar, so reconciling DisplayText again is a no-op.
func Anchor(n int) string {
	return string(anchorOpen) + strconv.Itoa(n) + string(anchorClose)
}

// StripAnchors removes anchors and stray anchor delimiters from untrusted text.
// Model output goes through it before reconciliation.
func StripAnchors(text string) string {
	if !strings.ContainsRune(text, anchorOpen) && !strings.ContainsRune(text, anchorClose) {
		return text
	}
	text = anchorPattern.ReplaceAllString(text, "")
	return strings.Map(func(r rune) rune {
		if r == anchorOpen || r == anchorClose {
			return -1
		}
		return r
	}, text)
}

// PlainText writes anchors as "[^N]" for terminals and logs.
func PlainText(displayText string) string {
	return anchorPattern.ReplaceAllString(displayText, "[^$1]")
}
