// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"image"
	"testing"

	"leakwatch/internal/config"
	"leakwatch/internal/detector"
)

// stubFaceLocator returns a fixed set of face boxes
type stubFaceLocator struct {
	boxes []detector.BoundingBox
}

func (stubFaceLocator) Available() bool { return true }
func (s stubFaceLocator) LocateFaces(image.Image) ([]detector.BoundingBox, error) {
	return s.boxes, nil
}

// stubTextRegionReader returns a fixed set of text regions
type stubTextRegionReader struct {
	regions []detector.TextRegion
}

func (stubTextRegionReader) Available() bool { return true }
func (s stubTextRegionReader) ReadTextRegions(image.Image) ([]detector.TextRegion, error) {
	return s.regions, nil
}

// stubTextDetector matches a single hardcoded label against a substring
type stubTextDetector struct {
	needle string
	label  string
}

func (s stubTextDetector) DetectText(buffer string) ([]detector.DetectedEntity, error) {
	for start := 0; start+len(s.needle) <= len(buffer); start++ {
		if buffer[start:start+len(s.needle)] == s.needle {
			span := detector.Span{Start: start, End: start + len(s.needle)}
			return []detector.DetectedEntity{{
				Modality:   detector.ModalityText,
				Label:      s.label,
				Confidence: 0.95,
				Text:       s.needle,
				Span:       &span,
				Mitigation: detector.MitigationMask,
			}}, nil
		}
	}
	return nil, nil
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 100, 100))
}

func testImageConfig() config.ImageConfig {
	return config.ImageConfig{
		FaceBlurKernel: 35,
		MinConfidence:  0.5,
		EnableOCR:      true,
	}
}

func TestDetectImageFaces(t *testing.T) {
	faces := stubFaceLocator{boxes: []detector.BoundingBox{
		{X: 10, Y: 10, Width: 30, Height: 30},
		{X: 50, Y: 50, Width: 20, Height: 20},
	}}
	d := NewDetector(testImageConfig(), faces, UnavailableTextRegionReader{}, nil, nil)

	entities, err := d.DetectImage(testImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 face entities, got %d", len(entities))
	}
	for _, entity := range entities {
		if entity.Label != "face" || entity.Mitigation != detector.MitigationBlur {
			t.Errorf("face entity mismatch: %+v", entity)
		}
		if entity.BBox == nil || entity.Modality != detector.ModalityImage {
			t.Errorf("face entity missing region data: %+v", entity)
		}
	}
}

func TestDetectImageUnavailableRecognizers(t *testing.T) {
	d := NewDetector(testImageConfig(), UnavailableFaceLocator{}, UnavailableTextRegionReader{}, nil, nil)
	entities, err := d.DetectImage(testImage())
	if err != nil {
		t.Fatalf("unavailable recognizers must degrade, not fail: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("expected no entities, got %+v", entities)
	}
}

func TestDetectImageNilRecognizers(t *testing.T) {
	d := NewDetector(testImageConfig(), nil, nil, nil, nil)
	entities, err := d.DetectImage(testImage())
	if err != nil {
		t.Fatalf("nil recognizers must behave like unavailable ones: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("expected no entities, got %+v", entities)
	}
}

func TestDetectImageNestedTextFindings(t *testing.T) {
	reader := stubTextRegionReader{regions: []detector.TextRegion{
		{
			Text:       "SSN 123-45-6789",
			Confidence: 0.8,
			Box:        detector.BoundingBox{X: 5, Y: 5, Width: 60, Height: 20},
		},
	}}
	nested := stubTextDetector{needle: "123-45-6789", label: "SSN"}
	d := NewDetector(testImageConfig(), UnavailableFaceLocator{}, reader, nested, nil)

	entities, err := d.DetectImage(testImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 nested entity, got %d", len(entities))
	}

	entity := entities[0]
	if entity.Label != "SSN" {
		t.Errorf("label = %q", entity.Label)
	}
	if entity.Modality != detector.ModalityImage {
		t.Errorf("nested finding must inherit the image modality, got %v", entity.Modality)
	}
	if entity.Span != nil {
		t.Error("nested finding must drop its text span inside an image")
	}
	if entity.BBox == nil || entity.BBox.X != 5 {
		t.Errorf("nested finding must carry the region box: %+v", entity.BBox)
	}
	if entity.Confidence != 0.8 {
		t.Errorf("nested finding must inherit the OCR confidence, got %v", entity.Confidence)
	}
}

func TestDetectImageSceneTextFallback(t *testing.T) {
	reader := stubTextRegionReader{regions: []detector.TextRegion{
		{Text: "EXIT", Confidence: 0.9, Box: detector.BoundingBox{X: 1, Y: 1, Width: 10, Height: 10}},
	}}
	d := NewDetector(testImageConfig(), UnavailableFaceLocator{}, reader, stubTextDetector{needle: "zzz", label: "NONE"}, nil)

	entities, err := d.DetectImage(testImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 1 || entities[0].Label != sceneTextLabel {
		t.Fatalf("expected a scene text fallback entity, got %+v", entities)
	}
	if entities[0].Mitigation != detector.MitigationBlur {
		t.Errorf("scene text should default to blur, got %v", entities[0].Mitigation)
	}
}

func TestDetectImageConfidenceFloor(t *testing.T) {
	reader := stubTextRegionReader{regions: []detector.TextRegion{
		{Text: "low", Confidence: 0.2, Box: detector.BoundingBox{X: 1, Y: 1, Width: 10, Height: 10}},
		{Text: "high", Confidence: 0.9, Box: detector.BoundingBox{X: 20, Y: 20, Width: 10, Height: 10}},
	}}
	d := NewDetector(testImageConfig(), UnavailableFaceLocator{}, reader, nil, nil)

	entities, err := d.DetectImage(testImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 1 || entities[0].Text != "high" {
		t.Errorf("regions below the confidence floor should be dropped: %+v", entities)
	}
}

func TestDetectImageOCRDisabled(t *testing.T) {
	cfg := testImageConfig()
	cfg.EnableOCR = false
	reader := stubTextRegionReader{regions: []detector.TextRegion{
		{Text: "secret", Confidence: 0.9, Box: detector.BoundingBox{X: 1, Y: 1, Width: 10, Height: 10}},
	}}
	d := NewDetector(cfg, UnavailableFaceLocator{}, reader, nil, nil)

	entities, err := d.DetectImage(testImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("OCR disabled must suppress text regions: %+v", entities)
	}
}
