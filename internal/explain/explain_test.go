// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package explain

import (
	"bufio"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"leakwatch/internal/detector"
)

func TestRenderSpanReport(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "report.spans.txt")

	sanitized := "call [REDACTED:PHONE] now"
	entities := []detector.DetectedEntity{
		{
			Modality:    detector.ModalityText,
			Label:       "PHONE",
			Confidence:  0.9,
			Text:        "[REDACTED:PHONE]",
			Explanation: "555-0100",
			Span:        &detector.Span{Start: 5, End: 21},
			Mitigation:  detector.MitigationMask,
		},
	}

	got, err := RenderSpanReport(sanitized, entities, outputPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != outputPath {
		t.Errorf("returned path = %q, want %q", got, outputPath)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	report := string(data)

	for _, want := range []string{
		"PHONE | mitigation=mask | span=(5, 21)",
		"original : 555-0100",
		"sanitized: [REDACTED:PHONE]",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestRenderSpanReportEmpty(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.spans.txt")

	if _, err := RenderSpanReport("clean text", nil, outputPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if string(data) != "No sensitive spans detected." {
		t.Errorf("empty report = %q", string(data))
	}
}

func TestRecordAuditAppendsNDJSON(t *testing.T) {
	auditPath := filepath.Join(t.TempDir(), "audit.log")

	result := &detector.DetectionResult{
		Modality:        detector.ModalityText,
		SourcePath:      "doc.txt",
		MitigatedOutput: "doc.sanitized.txt",
		Entities: []detector.DetectedEntity{
			{
				Label:      "SSN",
				Confidence: 0.95,
				Text:       "[REDACTED:SSN]",
				Span:       &detector.Span{Start: 4, End: 18},
				Mitigation: detector.MitigationMask,
			},
		},
	}

	for i := 0; i < 2; i++ {
		if _, err := RecordAudit(result, auditPath); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	file, err := os.Open(auditPath)
	if err != nil {
		t.Fatalf("failed to open audit log: %v", err)
	}
	defer file.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("audit line is not valid JSON: %v", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Modality != "text" || entry.Source != "doc.txt" {
			t.Errorf("entry header mismatch: %+v", entry)
		}
		if entry.EntityCount != 1 || len(entry.Entities) != 1 {
			t.Fatalf("entity summary missing: %+v", entry)
		}
		summary := entry.Entities[0]
		if summary.Label != "SSN" || summary.Mitigation != "mask" {
			t.Errorf("entity summary mismatch: %+v", summary)
		}
		if summary.Span == nil || summary.Span.Start != 4 || summary.Span.End != 18 {
			t.Errorf("span did not round-trip: %+v", summary.Span)
		}
	}
}

func TestRenderOverlay(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.png")

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	file, err := os.Create(src)
	if err != nil {
		t.Fatalf("failed to create source image: %v", err)
	}
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("failed to encode source image: %v", err)
	}
	file.Close()

	entities := []detector.DetectedEntity{
		{
			Label:      "face",
			Confidence: 0.9,
			BBox:       &detector.BoundingBox{X: 20, Y: 30, Width: 40, Height: 40},
			Mitigation: detector.MitigationBlur,
		},
	}

	outputPath := filepath.Join(dir, "frame.overlay.png")
	got, err := RenderOverlay(src, entities, outputPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != outputPath {
		t.Errorf("returned path = %q", got)
	}

	overlayFile, err := os.Open(outputPath)
	if err != nil {
		t.Fatalf("failed to open overlay: %v", err)
	}
	defer overlayFile.Close()
	overlay, err := png.Decode(overlayFile)
	if err != nil {
		t.Fatalf("overlay is not a decodable PNG: %v", err)
	}

	// Blur regions get a green border
	r, g, b, _ := overlay.At(21, 31).RGBA()
	if !(g > r && g > b) {
		t.Errorf("expected green border pixel at box edge, got (%d, %d, %d)", r>>8, g>>8, b>>8)
	}

	// Center stays untouched
	r, g, b, _ = overlay.At(40, 50).RGBA()
	if r>>8 != 128 || g>>8 != 128 || b>>8 != 128 {
		t.Errorf("box interior changed: (%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}
