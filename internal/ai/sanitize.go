package ai

import (
	"regexp"
	"strings"
)

// Field limits applied before postings are rendered into a prompt. Board
// descriptions routinely run to several thousand characters of HTML; past the
// caps they only add tokens without improving the verdict.
const (
	maxDescriptionLen = 500
	maxFieldLen       = 1500
)

var (
	htmlTagRE    = regexp.MustCompile(`<[^>]*>`)
	htmlEntityRE = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// sanitizeField strips markup and control characters from a posting field so
// it cannot break the prompt or the model's JSON output.
func sanitizeField(s string) string {
	if s == "" {
		return ""
	}
	s = htmlTagRE.ReplaceAllString(s, "")
	s = htmlEntityRE.ReplaceAllString(s, "")
	s = stripControl(s)
	s = whitespaceRE.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len(s) > maxFieldLen {
		s = s[:maxFieldLen]
	}
	return s
}

// sanitizeDescription applies sanitizeField and then the tighter description
// cap, marking the cut with an ellipsis.
func sanitizeDescription(s string) string {
	s = sanitizeField(s)
	if len(s) > maxDescriptionLen {
		s = s[:maxDescriptionLen-3] + "..."
	}
	return s
}

// stripControl removes C0 and C1 control characters.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, s)
}
