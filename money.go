package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches the first amount in a text node: a grouped form
// like "1.234,56" or a plain digit run, with an optional one- or two-digit
// decimal part.
var amountPattern = regexp.MustCompile(`(?:\d{1,3}(?:[.,]\d{3})+|\d+)(?:,\d{1,2})?`)

// NormalizeMoney extracts the first amount token from currency text and
// strips its grouping dots, e.g. "Total: R$ 1.234,56 (3 apostas)" ->
// "1234,56". Returns "" when no well-formed amount is present. Total
// elements often render a bet count next to the amount, so only the first
// token counts.
func NormalizeMoney(text string) string {
	loc := amountPattern.FindStringIndex(text)
	if loc == nil {
		return ""
	}

	// A comma or digit immediately after the token means the text is not a
	// well-formed amount ("15," or overlong decimal runs).
	if loc[1] < len(text) {
		next := text[loc[1]]
		if next == ',' || (next >= '0' && next <= '9') {
			return ""
		}
	}

	return strings.ReplaceAll(text[loc[0]:loc[1]], ".", "")
}

// ParseMoney parses a Brazilian currency string into centavos.
// Accepts the formats the site displays:
//   - "R$ 15,00"                    -> 1500
//   - "1.234,56"                    -> 123456
//   - "20"                          -> 2000 (whole reais)
//   - "R$ 15,5"                     -> 1550
//   - "Total: R$ 7,50 (3 apostas)"  -> 750
func ParseMoney(text string) (int64, error) {
	norm := NormalizeMoney(text)
	if norm == "" {
		return 0, fmt.Errorf("no amount found in %q", text)
	}

	whole := norm
	cents := "00"
	if i := strings.LastIndex(norm, ","); i >= 0 {
		// Any earlier commas are treated as grouping noise.
		whole = strings.ReplaceAll(norm[:i], ",", "")
		cents = norm[i+1:]
		if len(cents) == 0 || len(cents) > 2 {
			return 0, fmt.Errorf("invalid decimal part in %q", text)
		}
		for len(cents) < 2 {
			cents += "0"
		}
	}

	if whole == "" {
		whole = "0"
	}

	reais, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	centavos, err := strconv.ParseInt(cents, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", text, err)
	}

	return reais*100 + centavos, nil
}

// FormatMoney renders centavos back as display text, e.g. 1500 -> "R$ 15,00".
func FormatMoney(centavos int64) string {
	return fmt.Sprintf("R$ %d,%02d", centavos/100, centavos%100)
}
