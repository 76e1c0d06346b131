// Package pyquote implements Python-style string quoting and unquoting,
// used both when disasm decodes the pickle STRING opcode's quoted argument
// and when the renderer emits string literals into pseudocode.
package pyquote

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Quote quotes s with " the way Python's repr() would for ASCII-safe
// reproduction, but avoids \u and \U escapes inside: Python would read
// those back as literal backslash-u, not as the original codepoint.
//
// This matters because the renderer's output is meant to be copy/pasted
// back into a Python interpreter to sanity-check against the original
// pickle.
func Quote(s string) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, len(s))

	for {
		r, width := utf8.DecodeRuneInString(s)
		if width == 0 {
			break
		}

		emitRaw := false

		switch {
		case r == utf8.RuneError:
			fallthrough
		default:
			emitRaw = true

		case r == '\\' || r == '"':
			out = append(out, '\\', byte(r))

		case strconv.IsPrint(r):
			out = append(out, s[:width]...)

		case r < ' ':
			rq := strconv.QuoteRune(r)
			rq = rq[1 : len(rq)-1]
			out = append(out, rq...)
		}

		if emitRaw {
			for i := 0; i < width; i++ {
				out = append(out, '\\', 'x', hexdigits[s[i]>>4], hexdigits[s[i]&0xf])
			}
		}

		s = s[width:]
	}

	return "\"" + string(out) + "\""
}

// DecodeStringEscape decodes s according to Python2's "string-escape" codec,
// the format used by the STRING opcode's quoted argument.
func DecodeStringEscape(s string) (string, error) {
	out := make([]byte, 0, len(s))

loop:
	for {
		r, width := utf8.DecodeRuneInString(s)
		if width == 0 {
			break
		}

		if r != '\\' {
			out = append(out, s[:width]...)
			s = s[width:]
			continue
		}

		if len(s) < 2 {
			return "", strconv.ErrSyntax
		}

		switch c := s[1]; c {
		case '\n':
			s = s[2:]
			continue loop
		case '\\':
			out = append(out, '\\')
			s = s[2:]
			continue loop
		case '\'', '"':
			out = append(out, c)
			s = s[2:]
			continue loop
		default:
			out = append(out, '\\')
			s = s[1:]
			continue loop
		case 'b', 'f', 't', 'n', 'r', 'v', 'a':
		case '0', '1', '2', '3', '4', '5', '6', '7':
		case 'x':
		}

		r, _, tail, err := strconv.UnquoteChar(s, 0)
		if err != nil {
			return "", err
		}

		c := byte(r)
		if r != rune(c) {
			return "", fmt.Errorf("pyquote: string-escape: non-byte escaped rune %q", r)
		}

		out = append(out, c)
		s = tail
	}

	return string(out), nil
}
