// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package explain renders human-inspectable artifacts from mitigated results:
// span reports, image overlays, and append-only audit records.
package explain

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"leakwatch/internal/detector"
	"leakwatch/internal/paths"
)

// RenderSpanReport writes a plain-text report summarizing the mitigated spans
// of a sanitized buffer. Spans are listed in ascending order; the sanitized
// snippet is sliced from the sanitized buffer, the original comes from the
// entity's explanation.
func RenderSpanReport(sanitized string, entities []detector.DetectedEntity, outputPath string) (string, error) {
	if err := paths.EnsureParentDir(outputPath); err != nil {
		return "", fmt.Errorf("failed to ensure report directory: %w", err)
	}

	spanEntities := make([]detector.DetectedEntity, 0, len(entities))
	for _, entity := range entities {
		if entity.Span != nil {
			spanEntities = append(spanEntities, entity)
		}
	}

	if len(spanEntities) == 0 {
		if err := os.WriteFile(outputPath, []byte("No sensitive spans detected."), 0o644); err != nil {
			return "", fmt.Errorf("failed to write span report: %w", err)
		}
		return outputPath, nil
	}

	sort.SliceStable(spanEntities, func(i, j int) bool {
		return spanEntities[i].Span.Start < spanEntities[j].Span.Start
	})

	var report strings.Builder
	report.WriteString("Detected sensitive spans:\n\n")
	for _, entity := range spanEntities {
		span := entity.Span
		sanitizedSnippet := ""
		if span.End <= len(sanitized) {
			sanitizedSnippet = sanitized[span.Start:span.End]
		}
		originalSnippet := entity.Explanation
		if originalSnippet == "" {
			originalSnippet = sanitizedSnippet
		}
		fmt.Fprintf(&report, "- %s | mitigation=%s | span=(%d, %d)\n", entity.Label, entity.Mitigation, span.Start, span.End)
		fmt.Fprintf(&report, "  original : %s\n", originalSnippet)
		fmt.Fprintf(&report, "  sanitized: %s\n", sanitizedSnippet)
	}

	if err := os.WriteFile(outputPath, []byte(report.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write span report: %w", err)
	}
	return outputPath, nil
}
