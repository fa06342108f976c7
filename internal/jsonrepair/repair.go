// Package jsonrepair recovers machine-readable JSON from language-model
// output. Models sometimes wrap the payload in prose or emit structurally
// broken JSON (unbalanced braces, trailing commas, missing commas between
// elements); this package extracts the embedded value and applies a small
// set of mechanical repairs before the caller gives up on the response.
package jsonrepair

import (
	"encoding/json"
	"strings"
)

// Extract returns the first JSON object or array embedded in text, including
// any surrounding structure up to the matching close. Returns "" when no
// opening brace or bracket is present.
func Extract(text string) string {
	objStart := strings.IndexByte(text, '{')
	arrStart := strings.IndexByte(text, '[')

	start := objStart
	open, closeCh := byte('{'), byte('}')
	if start == -1 || (arrStart != -1 && arrStart < start) {
		start = arrStart
		open, closeCh = '[', ']'
	}
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closeCh:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	// Ran out of input with the structure still open; return the tail and
	// let Repair balance it.
	return text[start:]
}

// Repair attempts to turn s into valid JSON by closing unterminated strings,
// balancing braces and brackets, and fixing comma placement. Returns the
// repaired text and whether it now parses.
func Repair(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if json.Valid([]byte(s)) {
		return s, true
	}

	s = closeString(s)
	s = stripTrailingCommas(s)
	s = insertMissingCommas(s)
	s = balance(s)
	s = stripTrailingCommas(s)

	return s, json.Valid([]byte(s))
}

// closeString terminates a string literal left open at the end of input.
func closeString(s string) string {
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
		}
	}
	if inString {
		return s + `"`
	}
	return s
}

// stripTrailingCommas removes commas that directly precede a closing brace
// or bracket, ignoring whitespace between them.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			b.WriteByte(c)
			continue
		}
		if c == '\\' && inString {
			escaped = true
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = !inString
		}
		if c == ',' && !inString {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// insertMissingCommas adds a comma between adjacent values where the model
// dropped one, e.g. `} {` inside an array or `" "key"` between members.
func insertMissingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	inString := false
	escaped := false
	var prev byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			b.WriteByte(c)
			continue
		}
		if c == '\\' && inString {
			escaped = true
			b.WriteByte(c)
			continue
		}
		if c == '"' && !inString {
			if prev == '}' || prev == ']' || prev == '"' {
				b.WriteByte(',')
			}
			inString = true
			b.WriteByte(c)
			prev = c
			continue
		}
		if c == '"' && inString {
			inString = false
			b.WriteByte(c)
			prev = c
			continue
		}
		if !inString {
			if c == '{' || c == '[' {
				if prev == '}' || prev == ']' {
					b.WriteByte(',')
				}
			}
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				prev = c
			} else {
				b.WriteByte(c)
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// balance appends closers for every brace or bracket still open at the end
// of input, innermost first.
func balance(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
