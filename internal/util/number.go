package util

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reNonNumeric = regexp.MustCompile(`[^0-9.\-]`)
	reWeight     = regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d+)?)\s*(kg|g)`)
)

// CleanNumber keeps digits, dots and minus signs and parses the rest.
// Anything unparsable is zero.
func CleanNumber(input string) decimal.Decimal {
	s := reNonNumeric.ReplaceAllString(strings.TrimSpace(input), "")
	if s == "" || s == "-" || s == "." {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ExtractWeightKg finds the first "<number>kg" or "<number>g" in the text and returns it in kilograms.
func ExtractWeightKg(text string) decimal.Decimal {
	m := reWeight.FindStringSubmatch(text)
	if len(m) < 3 {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero
	}
	if strings.EqualFold(m[2], "g") {
		return v.Div(decimal.NewFromInt(1000))
	}
	return v
}

// CeilInt rounds up to the next whole unit; negatives clamp to zero.
func CeilInt(d decimal.Decimal) int64 {
	if d.Sign() <= 0 {
		return 0
	}
	return d.Ceil().IntPart()
}
