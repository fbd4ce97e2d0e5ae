package transcript

import (
	"strings"
	"unicode"
)

// Extract returns the suffix of the new window's raw STT text that is not
// already implied by prior (emittedHistory + sentenceBuffer, concatenated).
// Comparisons are done on normalized text; the returned text is always the
// original-cased substring of raw.
//
// Windows overlap by (windowMs - strideMs), so the STT re-transcribes most
// of the previous window. Rules run in order, first match wins.
func Extract(prior, raw string) string {
	normPrior := normalize(prior)
	normRaw, rawMap, rawRunes := normalizeWithMap(raw)

	if normPrior == "" {
		return strings.TrimSpace(raw)
	}
	if strings.Contains(normPrior, normRaw) {
		return ""
	}
	if strings.HasPrefix(normRaw, normPrior) {
		return trimmedSuffix(rawRunes, rawMap, len(normPrior))
	}
	if suffix, ok := wordBoundaryOverlap(normPrior, normRaw, raw); ok {
		return suffix
	}
	if suffix, ok := characterTailOverlap(normPrior, normRaw, rawRunes, rawMap); ok {
		return suffix
	}
	if highRedundancy(normPrior, normRaw) {
		return ""
	}
	return strings.TrimSpace(raw)
}

func wordBoundaryOverlap(normPrior, normRaw, raw string) (string, bool) {
	priorWords := strings.Fields(normPrior)
	normWords := strings.Fields(normRaw)
	rawWords := strings.Fields(raw)
	if len(normWords) != len(rawWords) {
		// Normalization should never merge or split words; fall through to
		// the next rule rather than risk misaligned indices.
		return "", false
	}

	maxLen := len(priorWords)
	if len(normWords) < maxLen {
		maxLen = len(normWords)
	}
	if maxLen > 50 {
		maxLen = 50
	}
	for length := maxLen; length >= 3; length-- {
		if length > len(priorWords) || length > len(normWords) {
			continue
		}
		if equalSlices(priorWords[len(priorWords)-length:], normWords[:length]) {
			return strings.Join(rawWords[length:], " "), true
		}
	}
	return "", false
}

func characterTailOverlap(normPrior, normRaw string, rawRunes []rune, rawMap []int) (string, bool) {
	pt := lastNRunes(normPrior, 200)
	ch := firstNRunes(normRaw, 200)

	maxLen := len(pt)
	if len(ch) < maxLen {
		maxLen = len(ch)
	}
	for length := maxLen; length >= 20; length-- {
		if pt[len(pt)-length:] != ch[:length] {
			continue
		}
		ws := strings.IndexAny(normRaw[length:], " ")
		var cutAt int
		if ws >= 0 {
			cutAt = length + ws + 1
		} else {
			cutAt = length
		}
		return trimmedSuffix(rawRunes, rawMap, cutAt), true
	}
	return "", false
}

func highRedundancy(normPrior, normRaw string) bool {
	priorWords := strings.Fields(normPrior)
	rawWords := strings.Fields(normRaw)
	if len(rawWords) == 0 {
		return false
	}

	priorSet := make(map[string]struct{}, len(priorWords))
	for _, w := range priorWords {
		priorSet[w] = struct{}{}
	}

	uniqueRaw := make(map[string]struct{}, len(rawWords))
	overlap := make(map[string]struct{}, len(rawWords))
	for _, w := range rawWords {
		uniqueRaw[w] = struct{}{}
		if _, ok := priorSet[w]; ok {
			overlap[w] = struct{}{}
		}
	}
	if len(uniqueRaw) == 0 {
		return false
	}
	r := float64(len(overlap)) / float64(len(uniqueRaw))
	return r > 0.7 && len(rawWords) <= len(priorWords)
}

// normalizeWithMap normalizes raw the same way normalize does, but also
// returns the rune slice of raw and, for every rune written to the
// normalized output, the raw rune index it was derived from — so a cut
// point in the normalized string can be mapped back onto original-cased
// text.
func normalizeWithMap(raw string) (norm string, rawIdx []int, rawRunes []rune) {
	rawRunes = []rune(raw)
	var out []rune
	i := 0
	n := len(rawRunes)
	for i < n && unicode.IsSpace(rawRunes[i]) {
		i++
	}
	for i < n {
		if unicode.IsSpace(rawRunes[i]) {
			start := i
			for i < n && unicode.IsSpace(rawRunes[i]) {
				i++
			}
			if i >= n {
				break
			}
			out = append(out, ' ')
			rawIdx = append(rawIdx, start)
			continue
		}
		out = append(out, unicode.ToLower(rawRunes[i]))
		rawIdx = append(rawIdx, i)
		i++
	}
	return string(out), rawIdx, rawRunes
}

func trimmedSuffix(rawRunes []rune, rawMap []int, normCut int) string {
	var rawCut int
	if normCut >= len(rawMap) {
		rawCut = len(rawRunes)
	} else {
		rawCut = rawMap[normCut]
	}
	return strings.TrimSpace(string(rawRunes[rawCut:]))
}

func lastNRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func firstNRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
