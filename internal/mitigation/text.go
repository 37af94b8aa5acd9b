// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mitigation

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"leakwatch/internal/config"
	"leakwatch/internal/detector"
	"leakwatch/internal/observability"
)

// TextEngine rewrites a text buffer at detected spans without corrupting
// subsequent offsets and selects a masking strategy per entity category.
type TextEngine struct {
	// config is the immutable text configuration the engine was built with
	config config.TextConfig

	// Observability
	observer *observability.StandardObserver
}

// NewTextEngine creates a text mitigation engine
func NewTextEngine(cfg config.TextConfig, observer *observability.StandardObserver) *TextEngine {
	return &TextEngine{
		config:   cfg,
		observer: observer,
	}
}

// Mitigate rewrites every span-bearing finding in the buffer and returns the
// sanitized buffer plus the mitigated findings.
//
// Span-bearing findings are rewritten in descending start order. This is the
// correctness invariant of the whole engine: a replacement of different
// length at a later offset never shifts the not-yet-processed earlier
// offsets. Results are returned in ascending span order on the sanitized
// buffer; findings without spans pass through unchanged at the end.
//
// A span outside the buffer is a detector contract breach and fails the call;
// clamping it would silently corrupt the audit trail.
func (te *TextEngine) Mitigate(buffer string, findings []detector.DetectedEntity) (string, []detector.DetectedEntity, error) {
	finishTiming := te.observer.StartTiming("text_engine", "mitigate", "")

	if buffer == "" || len(findings) == 0 {
		finishTiming(true, map[string]interface{}{"entity_count": 0})
		return buffer, findings, nil
	}

	var spanFindings, passthrough []detector.DetectedEntity
	for _, finding := range findings {
		if finding.Span == nil {
			passthrough = append(passthrough, finding)
			continue
		}
		if err := finding.Span.Validate(len(buffer)); err != nil {
			finishTiming(false, map[string]interface{}{"error": err.Error()})
			return "", nil, fmt.Errorf("finding %q violates span invariant: %w", finding.Label, err)
		}
		spanFindings = append(spanFindings, finding)
	}

	accepted, overlapping := resolveOverlaps(spanFindings)

	// Rewrite from the highest offset down so earlier spans stay valid
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Span.Start > accepted[j].Span.Start
	})

	sanitized := buffer
	mitigated := make([]detector.DetectedEntity, 0, len(findings))
	for _, finding := range accepted {
		start, end := finding.Span.Start, finding.Span.End
		original := sanitized[start:end]
		replacement := te.replacementFor(finding, original)
		sanitized = sanitized[:start] + replacement + sanitized[end:]

		newSpan := detector.Span{Start: start, End: start + len(replacement)}
		mitigated = append(mitigated, finding.WithRewrite(newSpan, replacement, te.actionFor(finding), original))
	}

	// Reverse back to ascending order for downstream consumers
	for i, j := 0, len(mitigated)-1; i < j; i, j = i+1, j-1 {
		mitigated[i], mitigated[j] = mitigated[j], mitigated[i]
	}

	mitigated = append(mitigated, overlapping...)
	mitigated = append(mitigated, passthrough...)

	finishTiming(true, map[string]interface{}{
		"entity_count":    len(mitigated),
		"rewritten_count": len(accepted),
		"dropped_overlap": len(overlapping),
	})
	return sanitized, mitigated, nil
}

// resolveOverlaps partitions span findings into a non-overlapping accepted
// set and the findings displaced by an overlap. Findings are ranked by
// confidence, then span width, then position, so the outcome is deterministic
// regardless of detector ordering. Displaced findings keep MitigationNone:
// their region is already covered by a higher-ranked rewrite.
func resolveOverlaps(findings []detector.DetectedEntity) (accepted, overlapping []detector.DetectedEntity) {
	ranked := make([]detector.DetectedEntity, len(findings))
	copy(ranked, findings)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		if ranked[i].Span.Len() != ranked[j].Span.Len() {
			return ranked[i].Span.Len() > ranked[j].Span.Len()
		}
		return ranked[i].Span.Start < ranked[j].Span.Start
	})

	for _, candidate := range ranked {
		conflict := false
		for _, kept := range accepted {
			if candidate.Span.Overlaps(*kept.Span) {
				conflict = true
				break
			}
		}
		if conflict {
			overlapping = append(overlapping, candidate.WithMitigation(detector.MitigationNone))
			continue
		}
		accepted = append(accepted, candidate)
	}
	return accepted, overlapping
}

// actionFor picks the mitigation action recorded on a finding. A non-none
// preference set by the detector wins; otherwise the masking style decides.
func (te *TextEngine) actionFor(finding detector.DetectedEntity) detector.Mitigation {
	if finding.Mitigation != detector.MitigationNone {
		return finding.Mitigation
	}
	if te.config.MaskStyle == config.MaskSynthetic {
		return detector.MitigationReplace
	}
	return detector.MitigationMask
}

// replacementFor computes the replacement string for a finding per the
// configured masking style
func (te *TextEngine) replacementFor(finding detector.DetectedEntity, original string) string {
	label := strings.ToUpper(finding.Label)
	switch te.config.MaskStyle {
	case config.MaskAsterisks:
		return strings.Repeat("*", utf8.RuneCountInString(original))
	case config.MaskSynthetic:
		return "<" + label + ">"
	default:
		return "[REDACTED:" + label + "]"
	}
}
