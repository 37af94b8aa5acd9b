// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"fmt"
	"image"

	"leakwatch/internal/config"
	"leakwatch/internal/detector"
	"leakwatch/internal/observability"
)

// faceConfidence is reported for located faces; the locator itself does not
// score individual regions
const faceConfidence = 0.9

// sceneTextLabel is used for OCR regions whose content matched no text entity
const sceneTextLabel = "scene_text"

// Detector implements detector.ImageDetector by composing a face locator and
// an optical character reader. Both recognizers are external collaborators
// behind capability gates; an unavailable recognizer contributes an empty
// result instead of an error.
type Detector struct {
	config config.ImageConfig

	// faces locates face regions; may be unavailable at runtime
	faces detector.FaceLocator

	// reader reads text regions; may be unavailable at runtime
	reader detector.TextRegionReader

	// textDetector re-scans OCR'd content for nested findings
	textDetector detector.TextDetector

	// Observability
	observer *observability.StandardObserver
}

// NewDetector creates a composite image detector. Any recognizer may be nil;
// nil behaves like an unavailable capability.
func NewDetector(cfg config.ImageConfig, faces detector.FaceLocator, reader detector.TextRegionReader, textDetector detector.TextDetector, observer *observability.StandardObserver) *Detector {
	return &Detector{
		config:       cfg,
		faces:        faces,
		reader:       reader,
		textDetector: textDetector,
		observer:     observer,
	}
}

// DetectImage returns face findings followed by text-region findings
func (d *Detector) DetectImage(img image.Image) ([]detector.DetectedEntity, error) {
	finishTiming := d.observer.StartTiming("image_detector", "detect_image", "")

	var entities []detector.DetectedEntity

	faceEntities, err := d.detectFaces(img)
	if err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	entities = append(entities, faceEntities...)

	textEntities, err := d.detectTextRegions(img)
	if err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	entities = append(entities, textEntities...)

	finishTiming(true, map[string]interface{}{"entity_count": len(entities)})
	return entities, nil
}

// detectFaces runs the face locator when it is available
func (d *Detector) detectFaces(img image.Image) ([]detector.DetectedEntity, error) {
	if d.faces == nil || !d.faces.Available() {
		d.observer.LogWarning("image_detector", "detect_faces", "", "face locator unavailable")
		return nil, nil
	}

	boxes, err := d.faces.LocateFaces(img)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	entities := make([]detector.DetectedEntity, 0, len(boxes))
	for _, box := range boxes {
		bbox := box
		entities = append(entities, detector.DetectedEntity{
			Modality:   detector.ModalityImage,
			Label:      "face",
			Confidence: faceConfidence,
			BBox:       &bbox,
			Mitigation: detector.MitigationBlur,
		})
	}
	return entities, nil
}

// detectTextRegions runs OCR and re-scans each hit with the text detector.
// Nested findings inherit the image modality and the OCR bounding box; hits
// with no nested finding become generic scene text.
func (d *Detector) detectTextRegions(img image.Image) ([]detector.DetectedEntity, error) {
	if !d.config.EnableOCR {
		return nil, nil
	}
	if d.reader == nil || !d.reader.Available() {
		d.observer.LogWarning("image_detector", "detect_text_regions", "", "text region reader unavailable")
		return nil, nil
	}

	regions, err := d.reader.ReadTextRegions(img)
	if err != nil {
		return nil, fmt.Errorf("text region detection failed: %w", err)
	}

	var entities []detector.DetectedEntity
	for _, region := range regions {
		if region.Confidence < d.config.MinConfidence {
			continue
		}

		var nested []detector.DetectedEntity
		if d.textDetector != nil {
			nested, err = d.textDetector.DetectText(region.Text)
			if err != nil {
				return nil, fmt.Errorf("nested text detection failed: %w", err)
			}
		}

		if len(nested) > 0 {
			for _, entity := range nested {
				bbox := region.Box
				entity.Modality = detector.ModalityImage
				entity.Span = nil
				entity.BBox = &bbox
				entity.Confidence = region.Confidence
				entities = append(entities, entity)
			}
			continue
		}

		bbox := region.Box
		entities = append(entities, detector.DetectedEntity{
			Modality:   detector.ModalityImage,
			Label:      sceneTextLabel,
			Confidence: region.Confidence,
			Text:       region.Text,
			BBox:       &bbox,
			Mitigation: detector.MitigationBlur,
		})
	}
	return entities, nil
}

// UnavailableFaceLocator is the degraded face locator used when no face model
// is wired in. It reports unavailable and never returns regions.
type UnavailableFaceLocator struct{}

// Available always reports false
func (UnavailableFaceLocator) Available() bool { return false }

// LocateFaces returns no regions
func (UnavailableFaceLocator) LocateFaces(image.Image) ([]detector.BoundingBox, error) {
	return nil, nil
}

// UnavailableTextRegionReader is the degraded reader used when no OCR engine
// is wired in
type UnavailableTextRegionReader struct{}

// Available always reports false
func (UnavailableTextRegionReader) Available() bool { return false }

// ReadTextRegions returns no regions
func (UnavailableTextRegionReader) ReadTextRegions(image.Image) ([]detector.TextRegion, error) {
	return nil, nil
}
