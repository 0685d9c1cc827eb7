package sqlstmt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// quote renders s as a canonical double-quoted string. The text is NFC
// normalized first so equivalent Unicode spellings serialize identically.
//
// Escaped: '"', '\\', '/', and the \b \f \n \r \t controls. Other control
// characters are written as \u00XX so the output stays valid JSON. Bytes
// that are not valid UTF-8 become U+FFFD.
func quote(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				b.WriteRune(utf8.RuneError)
			} else {
				b.WriteString(s[i : i+size])
			}
			i += size - 1
			continue
		}
		switch c {
		case '"', '\\', '/':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// quoteOrNull quotes s, or returns null for the empty string.
func quoteOrNull(s string) string {
	if s == "" {
		return "null"
	}
	return quote(s)
}

// quotePtr quotes *s, or returns null for a nil pointer.
func quotePtr(s *string) string {
	if s == nil {
		return "null"
	}
	return quote(*s)
}
