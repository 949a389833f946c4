package translate

import (
	"unicode"

	"pagemill/internal/segment"
)

// likelyTranslated reports whether the document already reads in the target
// script. Only prose spans count; code and links are excluded so a listing-
// heavy page is judged on its actual text.
func (s *Stage) likelyTranslated(content string) bool {
	if s.cfg.Script == nil || s.cfg.Threshold <= 0 {
		return false
	}
	return scriptRatio(segment.Split(content), s.cfg.Script) >= s.cfg.Threshold
}

// scriptRatio returns the fraction of letters in the text spans that belong
// to the given script. A document with no letters ratios to zero.
func scriptRatio(spans []segment.Span, script *unicode.RangeTable) float64 {
	letters := 0
	matched := 0
	for _, span := range spans {
		if span.Kind != segment.Text {
			continue
		}
		for _, r := range span.Body {
			if !unicode.IsLetter(r) {
				continue
			}
			letters++
			if unicode.Is(script, r) {
				matched++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(matched) / float64(letters)
}
