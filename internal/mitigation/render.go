// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mitigation

import (
	"image"
	"image/color"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Glyph metrics of the basicfont face used for synthesized text
const (
	glyphAdvance = 7
	glyphHeight  = 13
	glyphAscent  = 11
)

// lineGap is the vertical padding between rendered lines, pre-scale
const lineGap = 3

// fontScaleFor derives an integer glyph scale from the smaller box dimension,
// clipped to a sane range
func fontScaleFor(width, height int) int {
	smallest := width
	if height < smallest {
		smallest = height
	}
	scale := smallest / 70
	if scale < 1 {
		scale = 1
	}
	if scale > 3 {
		scale = 3
	}
	return scale
}

// wrapText word-wraps a string to at most maxChars characters per line.
// Words longer than maxChars are hard-split.
func wrapText(text string, maxChars int) []string {
	if maxChars < 1 {
		maxChars = 1
	}
	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		for len(word) > maxChars {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			lines = append(lines, word[:maxChars])
			word = word[maxChars:]
		}
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= maxChars:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// renderTextBlock draws word-wrapped text into the region: each line centered
// horizontally, a 1px offset shadow under the main stroke for legibility, as
// many lines as fit the region height.
func renderTextBlock(region *image.RGBA, text string, ink color.RGBA) {
	bounds := region.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	scale := fontScaleFor(width, height)

	maxChars := width / (glyphAdvance * scale)
	if maxChars < 4 {
		maxChars = 4
	}
	lines := wrapText(text, maxChars)

	lineHeight := (glyphHeight + lineGap) * scale
	maxLines := height / lineHeight
	if maxLines < 1 {
		maxLines = 1
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	// Shadow color flips against the ink so it reads on either background
	shadow := color.RGBA{R: 0, G: 0, B: 0, A: 255}
	if grayValue(ink) < 128 {
		shadow = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}

	blockHeight := len(lines) * lineHeight
	yCursor := (height - blockHeight) / 2
	if yCursor < 0 {
		yCursor = 0
	}

	for _, line := range lines {
		lineWidth := len(line) * glyphAdvance * scale
		x := (width - lineWidth) / 2
		if x < 2 {
			x = 2
		}
		drawLine(region, line, bounds.Min.X+x, bounds.Min.Y+yCursor, scale, shadow, ink)
		yCursor += lineHeight
	}
}

// drawLine renders one line at the given scale: the glyphs are drawn at the
// base face size with a 1px shadow, then scaled onto the region
func drawLine(region *image.RGBA, line string, x, y, scale int, shadow, ink color.RGBA) {
	baseWidth := len(line)*glyphAdvance + 2
	baseHeight := glyphHeight + 2
	base := image.NewRGBA(image.Rect(0, 0, baseWidth, baseHeight))

	drawer := font.Drawer{
		Dst:  base,
		Src:  image.NewUniform(shadow),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(1, glyphAscent+1),
	}
	drawer.DrawString(line)

	drawer.Src = image.NewUniform(ink)
	drawer.Dot = fixed.P(0, glyphAscent)
	drawer.DrawString(line)

	target := image.Rect(x, y, x+baseWidth*scale, y+baseHeight*scale)
	target = target.Intersect(region.Bounds())
	if target.Empty() {
		return
	}
	xdraw.NearestNeighbor.Scale(region, target, base, base.Bounds(), xdraw.Over, nil)
}
