// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"fmt"
	"image"
)

// Modality identifies the kind of source artifact a finding came from
type Modality string

const (
	// ModalityText identifies plain text buffers
	ModalityText Modality = "text"
	// ModalityImage identifies raster images
	ModalityImage Modality = "image"
	// ModalityAudio identifies audio sources (reduced to text before the core)
	ModalityAudio Modality = "audio"
	// ModalityVideo identifies video sources (reduced to images before the core)
	ModalityVideo Modality = "video"
)

// IsValid reports whether the modality is one of the known values
func (m Modality) IsValid() bool {
	switch m {
	case ModalityText, ModalityImage, ModalityAudio, ModalityVideo:
		return true
	}
	return false
}

// String returns the string representation of the modality
func (m Modality) String() string {
	return string(m)
}

// Mitigation is the action applied to neutralize a finding
type Mitigation string

const (
	// MitigationNone means the finding has not been mitigated yet
	MitigationNone Mitigation = "none"
	// MitigationMask means the content was masked in place
	MitigationMask Mitigation = "mask"
	// MitigationBlur means the region was blurred
	MitigationBlur Mitigation = "blur"
	// MitigationReplace means the content was replaced with synthetic content
	MitigationReplace Mitigation = "replace"
)

// String returns the string representation of the mitigation action
func (a Mitigation) String() string {
	return string(a)
}

// Span is a half-open character range [Start, End) into a specific text buffer.
// A span is only meaningful relative to one buffer version; it becomes stale
// once the buffer is mutated at or before Start.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Validate checks the span invariant 0 <= Start <= End <= bufferLen
func (s Span) Validate(bufferLen int) error {
	if s.Start < 0 || s.End < s.Start || s.End > bufferLen {
		return fmt.Errorf("span (%d, %d) out of bounds for buffer of length %d", s.Start, s.End, bufferLen)
	}
	return nil
}

// Len returns the number of characters covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether two half-open spans intersect
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// BoundingBox is an axis-aligned integer pixel rectangle, origin top-left
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the pixel area of the box
func (b BoundingBox) Area() int {
	if b.Width < 0 || b.Height < 0 {
		return 0
	}
	return b.Width * b.Height
}

// Empty reports whether the box denotes no actionable region
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// ClampTo constrains the box to an image of the given dimensions.
// A box fully outside the image clamps to zero area.
func (b BoundingBox) ClampTo(width, height int) BoundingBox {
	x, y := b.X, b.Y
	w, h := b.Width, b.Height
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > width {
		w = width - x
	}
	if y+h > height {
		h = height - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return BoundingBox{X: x, Y: y, Width: w, Height: h}
}

// Rect converts the box to a stdlib image.Rectangle
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// DetectedEntity is one candidate sensitive region with category, confidence
// and location. Entities are immutable: mitigation produces new values via the
// With helpers, never in-place updates.
type DetectedEntity struct {
	// Modality of the source artifact the entity was found in
	Modality Modality `json:"modality"`

	// Label is the open-string entity category reported by the detector
	// (e.g. "face", "PHONE", "PERSON")
	Label string `json:"label"`

	// Confidence in [0, 1]
	Confidence float64 `json:"confidence"`

	// Text is the raw matched content, when known
	Text string `json:"text,omitempty"`

	// Span locates the entity in a text buffer (text modality only)
	Span *Span `json:"span,omitempty"`

	// BBox locates the entity in an image (image modality only)
	BBox *BoundingBox `json:"bbox,omitempty"`

	// Mitigation is the action applied to the entity; MitigationNone until a
	// mitigation engine has processed it
	Mitigation Mitigation `json:"mitigation"`

	// Explanation retains the original content that was replaced, for audit
	Explanation string `json:"explanation,omitempty"`
}

// WithMitigation returns a copy of the entity with the mitigation action set
func (e DetectedEntity) WithMitigation(action Mitigation) DetectedEntity {
	e.Mitigation = action
	return e
}

// WithRewrite returns a copy of the entity updated to reflect a text rewrite:
// the new span and replacement text on the sanitized buffer, the applied
// action, and the original content preserved in Explanation.
func (e DetectedEntity) WithRewrite(span Span, replacement string, action Mitigation, original string) DetectedEntity {
	e.Span = &span
	e.Text = replacement
	e.Mitigation = action
	e.Explanation = original
	return e
}

// WithExplanation returns a copy of the entity with the explanation set
func (e DetectedEntity) WithExplanation(original string) DetectedEntity {
	e.Explanation = original
	return e
}

// DetectionResult aggregates everything produced for one processed artifact
type DetectionResult struct {
	// SourcePath is the artifact that was processed
	SourcePath string `json:"source_path"`

	// Modality of the source artifact
	Modality Modality `json:"modality"`

	// Entities are the mitigated findings in left-to-right / detection order
	Entities []DetectedEntity `json:"entities"`

	// MitigatedOutput is the path of the sanitized artifact, when one was written
	MitigatedOutput string `json:"mitigated_output,omitempty"`

	// AuditLog is the audit log the run was recorded to, when enabled
	AuditLog string `json:"audit_log,omitempty"`

	// Artifacts lists auxiliary outputs (span reports, overlays, transcripts,
	// frame manifests) in creation order
	Artifacts []string `json:"artifacts,omitempty"`
}

// TextDetector produces span-bearing findings for a text buffer.
// Implementations are external collaborators; the core only consumes them.
type TextDetector interface {
	DetectText(buffer string) ([]DetectedEntity, error)
}

// ImageDetector produces bbox-bearing findings for a decoded image
type ImageDetector interface {
	DetectImage(img image.Image) ([]DetectedEntity, error)
}

// Capability is implemented by optional recognizers that may be missing at
// runtime. The orchestrator queries availability and degrades to empty
// results instead of branching on nils at call sites.
type Capability interface {
	Available() bool
}

// FaceLocator finds face regions in an image
type FaceLocator interface {
	Capability
	LocateFaces(img image.Image) ([]BoundingBox, error)
}

// TextRegion is one OCR hit: a located region plus the text read from it
type TextRegion struct {
	Box        BoundingBox
	Text       string
	Confidence float64
}

// TextRegionReader reads text regions out of an image (an optical character
// reader). Implementations are external collaborators.
type TextRegionReader interface {
	Capability
	ReadTextRegions(img image.Image) ([]TextRegion, error)
}
