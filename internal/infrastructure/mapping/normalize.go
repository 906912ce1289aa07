package mapping

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader reduces a raw header cell to its comparable form. Only the
// first physical line is considered (merged spreadsheet cells export
// multi-line headers), compatibility forms are folded so full-width Latin
// and squared-unit characters compare equal to their plain equivalents, and
// case, whitespace and separator punctuation are ignored.
func NormalizeHeader(raw string) string {
	s := raw
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '_', '-', '.', ',', '(', ')', '[', ']', '/', ':', ';', '*', '\'', '"':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// containmentScore scores one normalized string containing the other as the
// length ratio of the shorter to the longer, 0 when neither contains the
// other. "한글품목명필수" vs "한글품목명" scores 5/7.
func containmentScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	shorter, longer := a, b
	sl, ll := len([]rune(a)), len([]rune(b))
	if sl > ll {
		shorter, longer = b, a
		sl, ll = ll, sl
	}
	if strings.Contains(longer, shorter) {
		return float64(sl) / float64(ll)
	}
	return 0
}

// diceCoefficient is the Sørensen–Dice similarity over rune bigrams, which
// tolerates reordered or partially overlapping header spellings without any
// language-specific tokenization.
func diceCoefficient(a, b string) float64 {
	ab, an := bigrams(a)
	bb, bn := bigrams(b)
	if an == 0 || bn == 0 {
		if a != "" && a == b {
			return 1
		}
		return 0
	}
	overlap := 0
	for bg, n := range ab {
		if m := bb[bg]; m > 0 {
			if n < m {
				overlap += n
			} else {
				overlap += m
			}
		}
	}
	return 2 * float64(overlap) / float64(an+bn)
}

func bigrams(s string) (map[string]int, int) {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil, 0
	}
	grams := make(map[string]int, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams, len(runes) - 1
}
