// Package refindex builds, caches, and queries the EDGAR reference index:
// the mapping from ticker symbols and company names to canonical 10-digit
// CIK identifiers.
package refindex

import "strings"

// cikWidth is the fixed width of a canonical CIK.
const cikWidth = 10

// NormalizeCIK returns the canonical 10-digit form of a numeric registrant
// id. Inputs of 1-9 digits are left-padded with zeros; a 10-digit input is
// returned unchanged. Anything else is not a CIK and reports false.
func NormalizeCIK(s string) (string, bool) {
	if !isNumeric(s) || len(s) > cikWidth {
		return "", false
	}
	for len(s) < cikWidth {
		s = "0" + s
	}
	return s, true
}

// PlainKey strips all dot and dash characters from a symbol and upper-cases
// it. The plain key is the de-duplication and lookup key for symbol variants.
func PlainKey(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, "-", "")
}

// Variants returns the interchangeable textual forms of a ticker symbol:
// the raw upper-cased form, the form with dots removed, the form with dots
// replaced by dashes, and the plain form with dots and dashes removed.
// Duplicates are collapsed; e.g. BRK.B yields BRK.B, BRKB, BRK-B.
func Variants(symbol string) []string {
	raw := strings.ToUpper(strings.TrimSpace(symbol))
	if raw == "" {
		return nil
	}
	candidates := []string{
		raw,
		strings.ReplaceAll(raw, ".", ""),
		strings.ReplaceAll(raw, ".", "-"),
		PlainKey(raw),
	}
	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
