// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pattern

import (
	"fmt"
	"regexp"

	"leakwatch/internal/config"
	"leakwatch/internal/detector"
	"leakwatch/internal/observability"
)

// regexConfidence is reported for every pattern hit. Pattern matches are near
// certain; contextual scoring belongs to the recognizer, not this detector.
const regexConfidence = 0.95

// Validator implements detector.TextDetector using configured regex patterns.
// It is the built-in pattern matcher; model-based recognizers plug in beside
// it through the same interface.
type Validator struct {
	patterns []entityPattern

	// maxDocLength caps how much of a buffer is scanned
	maxDocLength int

	// Observability
	observer *observability.StandardObserver
}

// entityPattern is one compiled pattern with its label and pre-selected action
type entityPattern struct {
	name   string
	regex  *regexp.Regexp
	action detector.Mitigation
}

// NewValidator compiles the configured regex entities into a text detector
func NewValidator(cfg config.TextConfig, observer *observability.StandardObserver) (*Validator, error) {
	v := &Validator{
		maxDocLength: cfg.MaxDocLength,
		observer:     observer,
	}

	for _, entity := range cfg.RegexEntities {
		regex, err := regexp.Compile(entity.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for entity %q: %w", entity.Name, err)
		}
		action := detector.MitigationNone
		switch entity.Action {
		case "mask":
			action = detector.MitigationMask
		case "replace":
			action = detector.MitigationReplace
		case "blur":
			action = detector.MitigationBlur
		}
		v.patterns = append(v.patterns, entityPattern{
			name:   entity.Name,
			regex:  regex,
			action: action,
		})
	}

	return v, nil
}

// Available reports whether the detector can run. Pattern matching has no
// external runtime dependency, so it is always available.
func (v *Validator) Available() bool {
	return true
}

// DetectText finds all configured pattern matches in the buffer and returns
// them as span-bearing entities in match order.
func (v *Validator) DetectText(buffer string) ([]detector.DetectedEntity, error) {
	finishTiming := v.observer.StartTiming("pattern_validator", "detect_text", "")
	if buffer == "" {
		finishTiming(true, map[string]interface{}{"entity_count": 0})
		return nil, nil
	}

	scanned := buffer
	if v.maxDocLength > 0 && len(scanned) > v.maxDocLength {
		scanned = scanned[:v.maxDocLength]
	}

	var entities []detector.DetectedEntity
	for _, pattern := range v.patterns {
		for _, loc := range pattern.regex.FindAllStringIndex(scanned, -1) {
			span := detector.Span{Start: loc[0], End: loc[1]}
			entities = append(entities, detector.DetectedEntity{
				Modality:   detector.ModalityText,
				Label:      pattern.name,
				Confidence: regexConfidence,
				Text:       scanned[loc[0]:loc[1]],
				Span:       &span,
				Mitigation: pattern.action,
			})
		}
	}

	finishTiming(true, map[string]interface{}{"entity_count": len(entities)})
	return entities, nil
}

// Composite fans a buffer out to several text detectors and concatenates
// their findings. Detectors that expose a capability gate and report
// unavailable are skipped instead of nil-checked at call sites.
type Composite struct {
	detectors []detector.TextDetector
	observer  *observability.StandardObserver
}

// NewComposite creates a composite over the given detectors
func NewComposite(observer *observability.StandardObserver, detectors ...detector.TextDetector) *Composite {
	return &Composite{detectors: detectors, observer: observer}
}

// DetectText runs every available detector in order
func (c *Composite) DetectText(buffer string) ([]detector.DetectedEntity, error) {
	var entities []detector.DetectedEntity
	for _, d := range c.detectors {
		if capability, ok := d.(detector.Capability); ok && !capability.Available() {
			c.observer.LogWarning("text_detector", "detect_text", "", "skipping unavailable detector")
			continue
		}
		found, err := d.DetectText(buffer)
		if err != nil {
			return nil, fmt.Errorf("text detector failed: %w", err)
		}
		entities = append(entities, found...)
	}
	return entities, nil
}
