package ocr

import "strings"

// DigitWhitelist restricts recognition to ASCII and full-width digits.
const DigitWhitelist = "0123456789０１２３４５６７８９"

const fullWidthOffset = 0xFEE0

// foldDigits maps full-width digits U+FF10..U+FF19 to ASCII.
func foldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return r - fullWidthOffset
		}
		return r
	}, s)
}

// ExtractNumbers returns every maximal run of ASCII digits in s after folding
// full-width digits, in order of appearance. Duplicates are kept.
func ExtractNumbers(s string) []string {
	s = foldDigits(s)

	tokens := []string{}
	start := -1
	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		switch {
		case isDigit && start < 0:
			start = i
		case !isDigit && start >= 0:
			tokens = append(tokens, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// UniqueOrdered drops repeated tokens, keeping the first occurrence.
func UniqueOrdered(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
