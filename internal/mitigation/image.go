// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mitigation

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"leakwatch/internal/config"
	"leakwatch/internal/detector"
	"leakwatch/internal/observability"
	"leakwatch/internal/paths"
)

// ImageEngine blurs face regions and synthesizes replacement content for text
// regions, matching local background and foreground statistics so the output
// stays visually plausible.
type ImageEngine struct {
	// config is the immutable image configuration the engine was built with
	config config.ImageConfig

	// Observability
	observer *observability.StandardObserver
}

// NewImageEngine creates an image mitigation engine
func NewImageEngine(cfg config.ImageConfig, observer *observability.StandardObserver) *ImageEngine {
	cfg.FaceBlurKernel = config.CoerceOddKernel(cfg.FaceBlurKernel)
	return &ImageEngine{
		config:   cfg,
		observer: observer,
	}
}

// Mitigate redacts every bbox-bearing finding in the source image and writes
// the sanitized image to outputPath (default: sibling file with a .sanitized
// suffix before the extension). An unreadable source image is an error:
// redaction must never silently pass through unredacted content. A zero-area
// region skips that finding without failing the run.
func (ie *ImageEngine) Mitigate(srcPath string, findings []detector.DetectedEntity, outputPath string) (string, []detector.DetectedEntity, error) {
	finishTiming := ie.observer.StartTiming("image_engine", "mitigate", srcPath)

	img, err := imgio.Open(srcPath)
	if err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return "", nil, fmt.Errorf("unable to load image %s: %w", srcPath, err)
	}

	if outputPath == "" {
		outputPath = paths.SanitizedSibling(srcPath)
	}

	// The re-encode below drops EXIF wholesale; note what was present so the
	// audit trail can show which metadata fields went away
	exifFields := readEXIFFields(srcPath)

	canvas := clone.AsRGBA(img)
	width, height := canvas.Bounds().Dx(), canvas.Bounds().Dy()

	mitigated := make([]detector.DetectedEntity, 0, len(findings))
	for _, finding := range findings {
		if finding.BBox == nil {
			continue
		}
		box := finding.BBox.ClampTo(width, height)
		if box.Empty() {
			continue
		}
		rect := box.Rect()

		if detector.Classify(finding.Label, finding.Text).IsFace() {
			region := extractRegion(canvas, rect)
			writeRegion(canvas, rect, blurRegion(region, ie.config.FaceBlurKernel))
			mitigated = append(mitigated, finding.WithMitigation(detector.MitigationBlur))
			continue
		}

		ie.synthesizeRegion(canvas, rect, finding)
		synthetic := SyntheticText(finding)
		entity := finding.WithExplanation(finding.Text).WithMitigation(detector.MitigationReplace)
		entity.Text = synthetic
		mitigated = append(mitigated, entity)
	}

	if err := ie.save(canvas, outputPath); err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return "", nil, err
	}

	finishTiming(true, map[string]interface{}{
		"entity_count":        len(mitigated),
		"output_path":         outputPath,
		"exif_fields_dropped": len(exifFields),
	})
	return outputPath, mitigated, nil
}

// synthesizeRegion overwrites a text region with plausible synthetic content:
// the background is softened to kill glyph edges, the ink color is sampled
// from the pre-mutation region, and the replacement text is laid out within
// the box. The original region copy is taken before any overwrite so color
// sampling still sees the source pixels.
func (ie *ImageEngine) synthesizeRegion(canvas *image.RGBA, rect image.Rectangle, finding detector.DetectedEntity) {
	original := extractRegion(canvas, rect)

	softened := softenRegion(original)
	bright := regionBrightness(original) > 128
	softened = overlayPanel(softened, bright)
	writeRegion(canvas, rect, softened)

	ink := inkColor(original)
	region := canvas.SubImage(rect).(*image.RGBA)
	renderTextBlock(region, SyntheticText(finding), ink)
}

// save writes the canvas in the container format implied by the output path
func (ie *ImageEngine) save(canvas *image.RGBA, outputPath string) error {
	if err := paths.EnsureParentDir(outputPath); err != nil {
		return fmt.Errorf("failed to ensure output directory: %w", err)
	}

	var encoder imgio.Encoder
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".jpg", ".jpeg":
		encoder = imgio.JPEGEncoder(95)
	case ".bmp":
		encoder = imgio.BMPEncoder()
	default:
		encoder = imgio.PNGEncoder()
	}

	if err := imgio.Save(outputPath, canvas, encoder); err != nil {
		return fmt.Errorf("failed to write sanitized image: %w", err)
	}
	return nil
}

// readEXIFFields lists the EXIF field names present in an image file.
// Missing or undecodable EXIF is normal (PNGs, stripped files) and yields nil.
func readEXIFFields(path string) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	decoded, err := exif.Decode(file)
	if err != nil {
		return nil
	}

	walker := &exifFieldWalker{}
	if err := decoded.Walk(walker); err != nil {
		return nil
	}
	return walker.fields
}

// exifFieldWalker implements exif.Walker to collect field names
type exifFieldWalker struct {
	fields []string
}

func (w *exifFieldWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if tag != nil {
		w.fields = append(w.fields, string(name))
	}
	return nil
}
