// Package textnorm folds non-ASCII numerals so the rest of the pipeline
// only ever parses ASCII digits.
package textnorm

import "strings"

// Digits maps Persian (۰-۹) and Arabic-Indic (٠-٩) digits to their ASCII
// equivalents. All other runes pass through untouched, so the function is
// idempotent and safe to apply to mixed text.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹': // Extended Arabic-Indic (Persian)
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩': // Arabic-Indic
			return '0' + (r - '٠')
		default:
			return r
		}
	}, s)
}

// StripSeparators removes thousands separators (ASCII and Arabic comma)
// from an already digit-folded string.
func StripSeparators(s string) string {
	return strings.NewReplacer(",", "", "،", "", "٬", "").Replace(s)
}
