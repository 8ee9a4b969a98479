package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// Clean drops every '<' and '>' so feed text cannot break the surrounding
// markup. Quotes, ampersands and URL contexts are left alone.
func Clean(text string) string {
	text = norm.NFC.String(text)
	return strings.TrimSpace(angleBrackets.Replace(text))
}

var htmlStripper = bluemonday.StrictPolicy()

const maxSummaryLen = 500

// StripHTML removes HTML tags and decodes entities from text
func StripHTML(s string) string {
	s = htmlStripper.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.TrimSpace(s)

	if len(s) > maxSummaryLen {
		s = truncateUTF8(s, maxSummaryLen-3) + "..."
	}

	return s
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
