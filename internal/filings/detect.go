package filings

import (
	"regexp"
	"strconv"
	"strings"
)

// DocClass is the coarse classification of a filing document that decides
// which detector runs over its text.
type DocClass int

const (
	ClassOther DocClass = iota
	ClassEventReport
	ClassOffering
)

// Classify maps a form designation to its document class. The 8-K family
// (including amendments) is the periodic event report; the registration and
// offering families are recognized by prefix.
func Classify(formType string) DocClass {
	form := strings.ToUpper(strings.TrimSpace(formType))
	if strings.HasPrefix(form, "8-K") {
		return ClassEventReport
	}
	for _, prefix := range []string{"S-1", "S-3", "S-11", "F-1", "424B"} {
		if strings.HasPrefix(form, prefix) {
			return ClassOffering
		}
	}
	return ClassOther
}

// Signals is the fixed-shape result of running the detectors over one
// document's plain text.
type Signals struct {
	Items     []string
	Badges    []string
	AmountUSD float64
	HasAmount bool
}

// Detect runs the detector selected by class over text. It never fails:
// malformed or empty text yields empty signals.
func Detect(text string, class DocClass) Signals {
	switch class {
	case ClassEventReport:
		items, badges := DetectItems(text)
		return Signals{Items: items, Badges: badges}
	case ClassOffering:
		amount, ok := ExtractAmount(text)
		return Signals{AmountUSD: amount, HasAmount: ok}
	default:
		return Signals{}
	}
}

// "Item 5.02", "ITEM 1.01" — a 1-2 digit major number, a dot, and a
// 2-digit minor number.
var itemRe = regexp.MustCompile(`(?i)\bitem\s+(\d{1,2}\.\d{2})`)

// itemBadges maps 8-K item codes to human-readable badges.
var itemBadges = map[string]string{
	"1.01": "Material Agreement",
	"1.02": "Agreement Terminated",
	"2.01": "Acquisition/Disposition",
	"2.02": "Results of Operations",
	"3.01": "Listing Notice",
	"4.01": "Auditor Change",
	"5.01": "Change in Control",
	"5.02": "Executive Change",
	"7.01": "Reg FD Disclosure",
	"8.01": "Other Events",
}

// DetectItems scans text for 8-K item codes, returning the deduplicated
// codes in first-seen order and the badges for the codes that map to one.
// Unmapped codes still appear in the item list.
func DetectItems(text string) (items, badges []string) {
	seen := make(map[string]bool)
	for _, m := range itemRe.FindAllStringSubmatch(text, -1) {
		code := m[1]
		if seen[code] {
			continue
		}
		seen[code] = true
		items = append(items, code)
		if badge, ok := itemBadges[code]; ok {
			badges = append(badges, badge)
		}
	}
	return items, badges
}

// "$2.5 million", "$10,000,000", "1 billion", "500m" — an optional dollar
// sign, a number with optional thousands separators and decimal part, and
// an optional scale word.
var amountRe = regexp.MustCompile(`(?i)\$?\s*(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)\s*(million|billion|bn|m)?\b`)

// ExtractAmount scans text for monetary expressions, normalizes them to raw
// dollar units (million/m ×1e6, billion/bn ×1e9), and returns the maximum
// value seen. ok is false when the document contains no parseable amount.
func ExtractAmount(text string) (amount float64, ok bool) {
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(m[2]) {
		case "million", "m":
			v *= 1e6
		case "billion", "bn":
			v *= 1e9
		}
		if !ok || v > amount {
			amount, ok = v, true
		}
	}
	return amount, ok
}
