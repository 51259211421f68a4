package sentiment

import "strings"

// firstJSONObject returns the first complete JSON object in reply, or ""
// when none is present. Models like to wrap their answer in prose, so scan
// for balanced braces while skipping over string literals (a quoted brace
// must not change the depth).
func firstJSONObject(reply string) string {
	open := strings.IndexByte(reply, '{')
	if open < 0 {
		return ""
	}

	depth := 0
	for i := open; i < len(reply); i++ {
		switch reply[i] {
		case '"':
			end, ok := skipStringLiteral(reply, i)
			if !ok {
				return ""
			}
			i = end
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return reply[open : i+1]
			}
		}
	}

	return ""
}

// skipStringLiteral returns the index of the closing quote of the string
// literal opening at s[from], honoring backslash escapes. ok is false when
// the literal never closes.
func skipStringLiteral(s string, from int) (end int, ok bool) {
	for i := from + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i, true
		}
	}
	return 0, false
}
