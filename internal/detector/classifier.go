// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"regexp"
	"strings"
)

// ContentCategory is the closed category taxonomy used to pick a mitigation
// branch. Detector labels remain open strings; Classify maps a (label, text)
// pair onto exactly one category.
type ContentCategory int

const (
	// CategoryOther is the fallback for content no rule recognizes
	CategoryOther ContentCategory = iota
	// CategoryFace marks face regions
	CategoryFace
	// CategoryDate marks dates and dates of birth
	CategoryDate
	// CategoryPhone marks telephone numbers
	CategoryPhone
	// CategorySSN marks social security numbers
	CategorySSN
	// CategoryClassified marks classification markers
	CategoryClassified
	// CategoryName marks name-like token sequences
	CategoryName
)

// String returns the string representation of the category
func (c ContentCategory) String() string {
	switch c {
	case CategoryFace:
		return "face"
	case CategoryDate:
		return "date"
	case CategoryPhone:
		return "phone"
	case CategorySSN:
		return "ssn"
	case CategoryClassified:
		return "classified"
	case CategoryName:
		return "name"
	default:
		return "other"
	}
}

// datePattern matches D/M/Y-style dates with / or - separators
var datePattern = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)

// digitPattern matches a single digit character
var digitPattern = regexp.MustCompile(`\d`)

// Classify maps a detector label and matched content onto one closed category.
// It is a pure function: the same (label, text) pair always yields the same
// category. Rules are evaluated in priority order, mirroring the mitigation
// branch order.
func Classify(label, text string) ContentCategory {
	if IsFaceLabel(label) {
		return CategoryFace
	}

	raw := strings.TrimSpace(text)
	if raw == "" {
		raw = strings.TrimSpace(label)
	}
	upper := strings.ToUpper(raw + " " + label)

	switch {
	case strings.Contains(upper, "DATE") || strings.Contains(upper, "DOB") || datePattern.MatchString(raw):
		return CategoryDate
	case strings.Contains(upper, "TEL") || strings.Contains(upper, "PHONE") || countDigits(raw) >= 7:
		return CategoryPhone
	case strings.Contains(upper, "SOCIAL") || strings.Contains(upper, "SSN"):
		return CategorySSN
	case strings.Contains(upper, "CLASSIFIED") || strings.Contains(upper, "CONFIDENTIAL"):
		return CategoryClassified
	default:
		return CategoryName
	}
}

// IsFace reports whether the category is the face category
func (c ContentCategory) IsFace() bool {
	return c == CategoryFace
}

// IsFaceLabel reports whether a detector label denotes a face region
func IsFaceLabel(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), "face")
}

// countDigits counts digit characters in a string
func countDigits(s string) int {
	return len(digitPattern.FindAllString(s, -1))
}
