package matcher

import "strings"

// nextWord takes the leading word of text for one parameter.
// A word wrapped in matching quotes ('…' or "…") is taken whole with the quotes
// stripped; the other quote character may appear inside. Otherwise the word ends
// at the first space. consumed is the exact prefix of text the word occupied.
func nextWord(text string) (value, consumed, rest string, ok bool) {
	if text == "" {
		return "", "", "", false
	}
	if q := text[0]; q == '"' || q == '\'' {
		if end := strings.IndexByte(text[1:], q); end >= 0 {
			end++
			return text[1:end], text[:end+1], text[end+1:], true
		}
	}
	idx := strings.IndexByte(text, ' ')
	switch {
	case idx < 0:
		return text, text, "", true
	case idx == 0:
		return "", "", "", false
	default:
		return text[:idx], text[:idx], text[idx:], true
	}
}

// isSingleSpace reports a text segment consisting of exactly one space.
func isSingleSpace(text string, ok bool) bool {
	return ok && text == " "
}
