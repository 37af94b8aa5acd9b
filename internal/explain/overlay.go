// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package explain

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"leakwatch/internal/detector"
	"leakwatch/internal/paths"
)

// Overlay box colors per mitigation action
var (
	blurBoxColor    = color.RGBA{G: 255, A: 255}
	replaceBoxColor = color.RGBA{B: 255, A: 255}
)

// boxBorder is the drawn rectangle thickness in pixels
const boxBorder = 2

// RenderOverlay draws each mitigated region's bounding box and a
// "label (action)" caption onto a copy of the given image and writes it to
// outputPath as PNG.
func RenderOverlay(imagePath string, entities []detector.DetectedEntity, outputPath string) (string, error) {
	img, err := imgio.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("unable to load image for overlay %s: %w", imagePath, err)
	}

	canvas := clone.AsRGBA(img)
	for _, entity := range entities {
		if entity.BBox == nil {
			continue
		}
		box := entity.BBox.ClampTo(canvas.Bounds().Dx(), canvas.Bounds().Dy())
		if box.Empty() {
			continue
		}

		boxColor := replaceBoxColor
		if entity.Mitigation == detector.MitigationBlur {
			boxColor = blurBoxColor
		}

		drawRectOutline(canvas, box.Rect(), boxColor)
		caption := fmt.Sprintf("%s (%s)", entity.Label, entity.Mitigation)
		drawCaption(canvas, caption, box.X, box.Y-4, boxColor)
	}

	if err := paths.EnsureParentDir(outputPath); err != nil {
		return "", fmt.Errorf("failed to ensure overlay directory: %w", err)
	}
	if err := imgio.Save(outputPath, canvas, imgio.PNGEncoder()); err != nil {
		return "", fmt.Errorf("failed to write overlay: %w", err)
	}
	return outputPath, nil
}

// drawRectOutline draws an unfilled rectangle with a fixed border width
func drawRectOutline(canvas *image.RGBA, rect image.Rectangle, col color.RGBA) {
	rect = rect.Intersect(canvas.Bounds())
	if rect.Empty() {
		return
	}
	src := image.NewUniform(col)

	top := image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+boxBorder)
	bottom := image.Rect(rect.Min.X, rect.Max.Y-boxBorder, rect.Max.X, rect.Max.Y)
	left := image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+boxBorder, rect.Max.Y)
	right := image.Rect(rect.Max.X-boxBorder, rect.Min.Y, rect.Max.X, rect.Max.Y)

	for _, edge := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(canvas, edge.Intersect(canvas.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawCaption draws a small label above a box, clamped into the image
func drawCaption(canvas *image.RGBA, text string, x, y int, col color.RGBA) {
	if y < basicfont.Face7x13.Ascent {
		y = basicfont.Face7x13.Ascent
	}
	drawer := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}
