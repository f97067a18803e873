// Package speech implements the Speech stage: sentence splitting, the
// synthesis worker subprocess protocol, and playback.
package speech

import "strings"

// SoftWrapWidth is the column at which a single over-long fragment is
// soft-wrapped.
const SoftWrapWidth = 180

// SplitSentences walks reply, emitting a fragment each time a '.', '!', or
// '?' is followed by whitespace or end-of-input. Each fragment is trimmed
// and empty fragments are dropped. If the result is a single fragment
// longer than SoftWrapWidth, it is soft-wrapped at whitespace at or before
// every SoftWrapWidth-th character.
func SplitSentences(reply string) []string {
	var sentences []string
	runes := []rune(reply)
	start := 0

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '.' || c == '!' || c == '?' {
			atEnd := i == len(runes)-1
			followedByWhitespace := !atEnd && isWhitespace(runes[i+1])
			if atEnd || followedByWhitespace {
				frag := strings.TrimSpace(string(runes[start : i+1]))
				if frag != "" {
					sentences = append(sentences, frag)
				}
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		frag := strings.TrimSpace(string(runes[start:]))
		if frag != "" {
			sentences = append(sentences, frag)
		}
	}

	if len(sentences) == 1 && len([]rune(sentences[0])) > SoftWrapWidth {
		return softWrap(sentences[0])
	}
	return sentences
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// softWrap breaks s at whitespace at or before every SoftWrapWidth-th
// character, so no chunk exceeds the width unless a single word does.
func softWrap(s string) []string {
	var out []string
	runes := []rune(s)
	for len(runes) > SoftWrapWidth {
		cut := SoftWrapWidth
		for cut > 0 && !isWhitespace(runes[cut]) {
			cut--
		}
		if cut == 0 {
			// No whitespace in range; hard-cut at the width instead.
			cut = SoftWrapWidth
		}
		chunk := strings.TrimSpace(string(runes[:cut]))
		if chunk != "" {
			out = append(out, chunk)
		}
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		out = append(out, rest)
	}
	return out
}
