// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mitigation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"leakwatch/internal/detector"
)

// Synthetic replacement text for image regions. All functions here are pure:
// the same (label, text) pair always produces the same replacement, which
// keeps the face/text branch and the masking branch deterministic.

// redactedFallback replaces content that is empty after trimming
const redactedFallback = "[REDACTED]"

// ssnPlaceholder replaces social security content wholesale
const ssnPlaceholder = "SOCIAL SECURITY NO: XX-XX-XXXX"

// classifiedPlaceholder replaces classification markers wholesale
const classifiedPlaceholder = "CLASSIFIED CONTENT - DO NOT DISTRIBUTE"

// syntheticDatePattern captures the three date fields and their separators
var syntheticDatePattern = regexp.MustCompile(`(\d{1,2})([/-])(\d{1,2})([/-])(\d{2,4})`)

// nonDigitPattern strips everything but digits
var nonDigitPattern = regexp.MustCompile(`\D`)

// nonLetterPattern strips everything but ASCII letters
var nonLetterPattern = regexp.MustCompile(`[^A-Za-z]`)

// SyntheticText computes the replacement string rendered into a redacted
// image text region. The category classifier decides the masking branch.
func SyntheticText(entity detector.DetectedEntity) string {
	raw := strings.TrimSpace(entity.Text)
	if raw == "" {
		raw = strings.TrimSpace(entity.Label)
	}
	if raw == "" {
		return redactedFallback
	}

	switch detector.Classify(entity.Label, entity.Text) {
	case detector.CategoryDate:
		return maskDate(raw)
	case detector.CategoryPhone:
		return maskPhone(raw)
	case detector.CategorySSN:
		return ssnPlaceholder
	case detector.CategoryClassified:
		return classifiedPlaceholder
	default:
		return maskNameLike(raw)
	}
}

// maskDate partially masks the first D/M/Y-style date in the text, keeping
// the original separators and the leading digits of each field
func maskDate(text string) string {
	replaced := false
	return syntheticDatePattern.ReplaceAllStringFunc(text, func(match string) string {
		if replaced {
			return match
		}
		replaced = true
		groups := syntheticDatePattern.FindStringSubmatch(match)
		day, sep1, month, sep2, year := groups[1], groups[2], groups[3], groups[4], groups[5]

		dayMask := "0x"
		if len(day) > 1 {
			dayMask = day[:1] + "x"
		}
		monthMask := "1a"
		if len(month) > 1 {
			monthMask = month[:1] + "a"
		}
		yearMask := "19xx"
		if len(year) >= 2 {
			yearMask = year[:2] + "xx"
		}
		return dayMask + sep1 + monthMask + sep2 + yearMask
	})
}

// maskPhone keeps the first two and last two digits and masks the rest,
// preserving the positions of non-digit punctuation
func maskPhone(text string) string {
	digits := nonDigitPattern.ReplaceAllString(text, "")
	if len(digits) < 4 {
		return "PHONE: XXX-XXXX"
	}

	masked := digits[:2] + strings.Repeat("x", len(digits)-4) + digits[len(digits)-2:]

	var rebuilt strings.Builder
	next := 0
	for _, ch := range text {
		if unicode.IsDigit(ch) {
			if next < len(masked) {
				rebuilt.WriteByte(masked[next])
				next++
			} else {
				rebuilt.WriteByte('x')
			}
			continue
		}
		rebuilt.WriteRune(ch)
	}
	// Any masked digits not consumed (possible with multi-rune digit input)
	// are appended so no original digit count information is lost
	if next < len(masked) {
		rebuilt.WriteString(masked[next:])
	}
	return rebuilt.String()
}

// maskNameLike destroys identity while keeping word count and approximate
// length: single letters become "Lx", longer tokens "Fxx<Last> <len>"
func maskNameLike(text string) string {
	tokens := strings.Fields(text)
	masked := make([]string, 0, len(tokens))
	for _, token := range tokens {
		clean := nonLetterPattern.ReplaceAllString(token, "")
		switch {
		case clean == "":
			masked = append(masked, "X")
		case len(clean) == 1:
			masked = append(masked, strings.ToUpper(clean)+"x")
		default:
			first := strings.ToUpper(clean[:1])
			last := strings.ToUpper(clean[len(clean)-1:])
			masked = append(masked, fmt.Sprintf("%sxx%s %d", first, last, len(clean)))
		}
	}
	return strings.Join(masked, " ")
}
