package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	punctuationRun = regexp.MustCompile(`[.]{2,}|!{2,}|\?{2,}`)
	spaceBeforePunct = regexp.MustCompile(`\s+([,;:.!?])`)
)

// Cleanup applies the final text-polishing pass to a released sentence
// span before it becomes the text of an emitted segment.
func Cleanup(text string, confidence float64) string {
	text = collapseWhitespace(text)
	if confidence >= 0.5 {
		text = collapseDuplicatePhrases(text)
	}
	text = punctuationRun.ReplaceAllStringFunc(text, func(m string) string { return m[:1] })
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = spaceAfterTerminator(text)
	return text
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// collapseDuplicatePhrases scans word by word; at each position it looks
// for the longest immediately-repeated phrase (3 to 10 words) and drops the
// second copy.
func collapseDuplicatePhrases(s string) string {
	words := strings.Fields(s)
	var out []string
	for i := 0; i < len(words); {
		remaining := len(words) - i
		matched := false
		maxLen := 10
		if remaining < maxLen {
			maxLen = remaining
		}
		for phraseLen := maxLen; phraseLen >= 3; phraseLen-- {
			if i+2*phraseLen > len(words) {
				continue
			}
			if equalFold(words[i:i+phraseLen], words[i+phraseLen:i+2*phraseLen]) {
				out = append(out, words[i:i+phraseLen]...)
				i += 2 * phraseLen
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, words[i])
			i++
		}
	}
	return strings.Join(out, " ")
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// spaceAfterTerminator ensures exactly one space between a sentence
// terminator and an immediately-following uppercase letter.
func spaceAfterTerminator(s string) string {
	runes := []rune(s)
	var out []rune
	for i := 0; i < len(runes); i++ {
		out = append(out, runes[i])
		if isTerminator(runes[i]) && i+1 < len(runes) && unicode.IsUpper(runes[i+1]) {
			out = append(out, ' ')
		}
	}
	return string(out)
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
