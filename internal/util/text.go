package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// StripSpaces removes every whitespace rune, including embedded newlines.
func StripSpaces(input string) string {
	if input == "" {
		return ""
	}
	out := strings.Builder{}
	out.Grow(len(input))
	for _, r := range input {
		if unicode.IsSpace(r) || r == '\u200b' || r == '\ufeff' {
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// NFC composes decomposed Hangul so substring matching on keywords works
// for files exported from macOS.
func NFC(input string) string {
	return norm.NFC.String(input)
}

// CellText is the canonical text form of a spreadsheet cell.
func CellText(input string) string {
	s := strings.TrimSpace(NFC(input))
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

// CleanPhone keeps digits only and restores the leading zero Excel drops from mobile numbers.
func CleanPhone(input string) string {
	s := strings.TrimSpace(input)
	if s == "" || s == "-" || strings.EqualFold(s, "nan") {
		return ""
	}
	if strings.HasSuffix(s, ".0") {
		s = strings.TrimSuffix(s, ".0")
	}
	out := strings.Builder{}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out.WriteRune(r)
		}
	}
	digits := out.String()
	if strings.HasPrefix(digits, "10") && len(digits) >= 10 {
		digits = "0" + digits
	}
	return digits
}

// LooksLikeEmail is a loose check used to skip placeholder cells.
func LooksLikeEmail(input string) bool {
	s := strings.TrimSpace(input)
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && strings.Contains(s[at:], ".")
}

func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}

// NormalizeSpaces collapses runs of whitespace to a single space.
func NormalizeSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
