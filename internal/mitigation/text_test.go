// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mitigation

import (
	"strings"
	"testing"

	"leakwatch/internal/config"
	"leakwatch/internal/detector"
)

func newTestEngine(style config.MaskStyle) *TextEngine {
	return NewTextEngine(config.TextConfig{
		MaskStyle:           style,
		ConfidenceThreshold: 0.5,
		MaxDocLength:        10000,
	}, nil)
}

func spanEntity(label string, start, end int, confidence float64, text string) detector.DetectedEntity {
	return detector.DetectedEntity{
		Modality:   detector.ModalityText,
		Label:      label,
		Confidence: confidence,
		Text:       text,
		Span:       &detector.Span{Start: start, End: end},
		Mitigation: detector.MitigationNone,
	}
}

func TestMitigateNoFindings(t *testing.T) {
	engine := newTestEngine(config.MaskBrackets)
	buffer := "nothing sensitive here"

	sanitized, entities, err := engine.Mitigate(buffer, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sanitized != buffer {
		t.Errorf("buffer changed with no findings: %q", sanitized)
	}
	if len(entities) != 0 {
		t.Errorf("expected no entities, got %d", len(entities))
	}
}

func TestMitigateOffsetSafety(t *testing.T) {
	// Multiple spans where replacements differ in length from the
	// originals. Every rewritten span must slice cleanly out of the
	// sanitized buffer and equal the recorded replacement text.
	buffer := "Call 555-123-4567 or mail a@b.com before 12/25/1990."
	findings := []detector.DetectedEntity{
		spanEntity("PHONE", 5, 17, 0.9, "555-123-4567"),
		spanEntity("EMAIL", 26, 33, 0.8, "a@b.com"),
		spanEntity("DATE", 41, 51, 0.7, "12/25/1990"),
	}

	engine := newTestEngine(config.MaskBrackets)
	sanitized, entities, err := engine.Mitigate(buffer, findings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(entities))
	}
	for i, entity := range entities {
		if entity.Span == nil {
			t.Fatalf("entity %d lost its span", i)
		}
		got := sanitized[entity.Span.Start:entity.Span.End]
		if got != entity.Text {
			t.Errorf("entity %d: sanitized[%d:%d] = %q, want %q",
				i, entity.Span.Start, entity.Span.End, got, entity.Text)
		}
		if i > 0 && entities[i-1].Span.Start > entity.Span.Start {
			t.Errorf("entities not in ascending span order at index %d", i)
		}
	}

	for _, leaked := range []string{"555-123-4567", "a@b.com", "12/25/1990"} {
		if strings.Contains(sanitized, leaked) {
			t.Errorf("sanitized buffer still contains %q", leaked)
		}
	}
	if !strings.Contains(sanitized, "[REDACTED:PHONE]") {
		t.Errorf("sanitized buffer missing phone mask: %q", sanitized)
	}
}

func TestMitigateMaskStyles(t *testing.T) {
	buffer := "id: 12345"
	finding := spanEntity("ID", 4, 9, 0.9, "12345")

	cases := []struct {
		style      config.MaskStyle
		want       string
		wantAction detector.Mitigation
	}{
		{config.MaskAsterisks, "id: *****", detector.MitigationMask},
		{config.MaskSynthetic, "id: <ID>", detector.MitigationReplace},
		{config.MaskBrackets, "id: [REDACTED:ID]", detector.MitigationMask},
	}
	for _, tc := range cases {
		t.Run(string(tc.style), func(t *testing.T) {
			engine := newTestEngine(tc.style)
			sanitized, entities, err := engine.Mitigate(buffer, []detector.DetectedEntity{finding})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sanitized != tc.want {
				t.Errorf("sanitized = %q, want %q", sanitized, tc.want)
			}
			if entities[0].Mitigation != tc.wantAction {
				t.Errorf("action = %v, want %v", entities[0].Mitigation, tc.wantAction)
			}
			if entities[0].Explanation != "12345" {
				t.Errorf("explanation = %q, want original content", entities[0].Explanation)
			}
		})
	}
}

func TestMitigateDetectorActionWins(t *testing.T) {
	buffer := "token abc"
	finding := spanEntity("TOKEN", 6, 9, 0.9, "abc")
	finding.Mitigation = detector.MitigationReplace

	engine := newTestEngine(config.MaskAsterisks)
	_, entities, err := engine.Mitigate(buffer, []detector.DetectedEntity{finding})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entities[0].Mitigation != detector.MitigationReplace {
		t.Errorf("detector action preference lost: got %v", entities[0].Mitigation)
	}
}

func TestMitigateOverlapResolution(t *testing.T) {
	// Two overlapping findings: the higher-confidence one wins the
	// rewrite, the displaced one passes through marked unmitigated.
	buffer := "number 555-123-4567 end"
	findings := []detector.DetectedEntity{
		spanEntity("DIGITS", 7, 15, 0.6, "555-123-"),
		spanEntity("PHONE", 7, 19, 0.9, "555-123-4567"),
	}

	engine := newTestEngine(config.MaskBrackets)
	sanitized, entities, err := engine.Mitigate(buffer, findings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sanitized != "number [REDACTED:PHONE] end" {
		t.Errorf("sanitized = %q", sanitized)
	}
	if len(entities) != 2 {
		t.Fatalf("expected both findings in the result, got %d", len(entities))
	}

	var winner, loser *detector.DetectedEntity
	for i := range entities {
		if entities[i].Label == "PHONE" {
			winner = &entities[i]
		} else {
			loser = &entities[i]
		}
	}
	if winner == nil || loser == nil {
		t.Fatal("missing winner or loser in results")
	}
	if winner.Mitigation == detector.MitigationNone {
		t.Error("winning finding was not mitigated")
	}
	if loser.Mitigation != detector.MitigationNone {
		t.Errorf("displaced finding should carry no mitigation, got %v", loser.Mitigation)
	}
}

func TestMitigateInvalidSpanFails(t *testing.T) {
	buffer := "short"
	finding := spanEntity("BAD", 2, 99, 0.9, "oops")

	engine := newTestEngine(config.MaskBrackets)
	_, _, err := engine.Mitigate(buffer, []detector.DetectedEntity{finding})
	if err == nil {
		t.Fatal("expected an error for an out-of-range span")
	}
	if !strings.Contains(err.Error(), "span") {
		t.Errorf("error should mention the span contract: %v", err)
	}
}

func TestMitigatePassthroughWithoutSpan(t *testing.T) {
	buffer := "hello"
	noSpan := detector.DetectedEntity{
		Modality:   detector.ModalityText,
		Label:      "NOTE",
		Confidence: 0.9,
		Text:       "hello",
	}

	engine := newTestEngine(config.MaskBrackets)
	sanitized, entities, err := engine.Mitigate(buffer, []detector.DetectedEntity{noSpan})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sanitized != buffer {
		t.Errorf("buffer changed by a span-less finding: %q", sanitized)
	}
	if len(entities) != 1 || entities[0].Mitigation != detector.MitigationNone {
		t.Errorf("span-less finding should pass through unchanged: %+v", entities)
	}
}
