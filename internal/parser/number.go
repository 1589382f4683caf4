package parser

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber extracts a number from locale-formatted text such as
// "1 234,56 €" or "10,50 €/m²". Currency and unit symbols are dropped, thousands
// separators are removed and a decimal comma becomes a decimal point.
//
// Separator rules:
//   - both ',' and '.' present: the last one is the decimal separator
//   - a separator repeated more than once is a thousands separator
//   - a single ',' or '.' followed by exactly three digits is a thousands separator
//   - otherwise a single separator is the decimal point
//
// Returns NaN when no digits are present.
func ParseNumber(text string) float64 {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ",.")
	if cleaned == "" {
		return math.NaN()
	}

	commas := strings.Count(cleaned, ",")
	dots := strings.Count(cleaned, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas > 0:
		cleaned = normaliseSingleSeparator(cleaned, ",", commas)
	case dots > 0:
		cleaned = normaliseSingleSeparator(cleaned, ".", dots)
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// normaliseSingleSeparator handles text that contains only one kind of separator.
func normaliseSingleSeparator(s, sep string, count int) string {
	if count > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	if len(s)-idx-1 == 3 {
		return strings.Replace(s, sep, "", 1)
	}
	return strings.Replace(s, sep, ".", 1)
}

// ParseLeadingInt returns the integer at the start of text, ignoring leading
// whitespace. "5/7" yields 5, "3" yields 3 and "Citi" yields NaN.
func ParseLeadingInt(text string) float64 {
	text = strings.TrimSpace(text)
	end := 0
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == 0 {
		return math.NaN()
	}
	v, err := strconv.Atoi(text[:end])
	if err != nil {
		return math.NaN()
	}
	return float64(v)
}
