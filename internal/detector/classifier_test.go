// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		label string
		text  string
		want  ContentCategory
	}{
		{"face label", "FACE", "", CategoryFace},
		{"face label lowercase", "face", "", CategoryFace},
		{"date label", "DATE", "anything", CategoryDate},
		{"dob label", "DOB", "anything", CategoryDate},
		{"date by shape", "SCENE_TEXT", "12/25/1990", CategoryDate},
		{"date with dashes", "SCENE_TEXT", "Born 3-7-85", CategoryDate},
		{"phone label", "PHONE", "555-0100", CategoryPhone},
		{"tel label", "TEL_NUMBER", "555-0100", CategoryPhone},
		{"phone by digit count", "SCENE_TEXT", "call 5551234567 now", CategoryPhone},
		{"ssn label", "SSN", "", CategorySSN},
		{"social label", "SOCIAL_SECURITY", "", CategorySSN},
		{"classified label", "CLASSIFIED", "", CategoryClassified},
		{"name label", "NAME", "Jordan Smith", CategoryName},
		{"person label", "PERSON", "Jordan Smith", CategoryName},
		{"plain text falls back to name", "SCENE_TEXT", "hello world", CategoryName},
		{"six digits is not a phone", "SCENE_TEXT", "order 123456", CategoryName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.label, tc.text)
			if got != tc.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tc.label, tc.text, got, tc.want)
			}
			// Classification is pure: the same inputs always produce the
			// same category
			if again := Classify(tc.label, tc.text); again != got {
				t.Errorf("Classify is not deterministic: %v then %v", got, again)
			}
		})
	}
}

func TestCategoryString(t *testing.T) {
	cases := map[ContentCategory]string{
		CategoryOther:      "other",
		CategoryFace:       "face",
		CategoryDate:       "date",
		CategoryPhone:      "phone",
		CategorySSN:        "ssn",
		CategoryClassified: "classified",
		CategoryName:       "name",
	}
	for category, want := range cases {
		if got := category.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestIsFaceLabel(t *testing.T) {
	if !IsFaceLabel("Face") {
		t.Error("mixed case face label should match")
	}
	if IsFaceLabel("surface") {
		t.Error("substring should not match")
	}
}
