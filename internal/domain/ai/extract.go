package ai

import "encoding/json"

// ExtractJSONObject returns the first balanced, valid JSON object embedded in s.
// Braces inside string literals are ignored. Balanced spans that are not valid
// JSON (prose like "{note}") are skipped and scanning resumes after their opening brace.
func ExtractJSONObject(s string) (string, error) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		end := matchBrace(s, start)
		if end < 0 {
			// no closing brace for this opener; later openers are nested inside it
			// or also unterminated, but a later complete object is still possible
			continue
		}
		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", ErrNoJSONObject
}

// matchBrace returns the index of the brace closing s[start], or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
