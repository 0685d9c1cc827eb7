package sqlstmt

import "strconv"

// isIDChar reports whether c may appear in an unquoted identifier: ASCII
// letters, digits, '_', '$' and every byte with the high bit set.
func isIDChar(c byte) bool {
	switch {
	case c&0x80 != 0:
		return true
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '$':
		return true
	}
	return false
}

// IsIdentifier reports whether s can be used as a field, table or function
// name. Dotted names ("sch.tab.col"), '*' and '-' are accepted; a value
// wholly enclosed in double quotes or backticks is accepted as quoted; a
// bare number is not an identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	if len(s) > 1 && (s[0] == '"' || s[0] == '`') && s[len(s)-1] == s[0] {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isIDChar(c) && c != '*' && c != '.' && c != '-' {
			return false
		}
	}
	if c := s[0]; c >= '0' && c <= '9' || c == '.' || c == '-' {
		// "inf" and "nan" parse as floats but are names
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return false
		}
	}
	return true
}
