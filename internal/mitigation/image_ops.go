// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mitigation

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/effect"
)

// darkInk and lightInk are the fallback ink colors when thresholding finds no
// usable foreground: dark ink on bright regions, light ink on dark regions
var (
	darkInk  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	lightInk = color.RGBA{R: 230, G: 230, B: 230, A: 255}
)

// minForegroundPixels is the Otsu foreground size below which a region is
// treated as degenerate/uniform
const minForegroundPixels = 20

// extractRegion copies the given rectangle of the canvas into a standalone
// RGBA image. Mutating the canvas afterwards does not affect the copy, which
// is what lets color sampling survive the in-place overwrite.
func extractRegion(canvas *image.RGBA, rect image.Rectangle) *image.RGBA {
	return clone.AsRGBA(canvas.SubImage(rect))
}

// writeRegion writes a region image back over the canvas rectangle
func writeRegion(canvas *image.RGBA, rect image.Rectangle, region image.Image) {
	draw.Draw(canvas, rect, region, region.Bounds().Min, draw.Src)
}

// blurRegion applies a strong Gaussian blur sized from the configured kernel
func blurRegion(region *image.RGBA, kernel int) *image.RGBA {
	radius := float64(kernel) / 2
	return blur.Gaussian(region, radius)
}

// softenRegion removes legible glyph edges while retaining local color: a
// heavy median blur blended 90/10 with the original region
func softenRegion(region *image.RGBA) *image.RGBA {
	bounds := region.Bounds()
	smallest := bounds.Dx()
	if bounds.Dy() < smallest {
		smallest = bounds.Dy()
	}
	kernel := smallest / 3
	if kernel%2 == 0 {
		kernel++
	}
	if kernel < 3 {
		kernel = 3
	}
	if kernel > 51 {
		kernel = 51
	}

	median := effect.Median(region, float64(kernel))
	return blend.Opacity(region, median, 0.9)
}

// grayValue returns the luma of an RGBA pixel
func grayValue(c color.RGBA) uint8 {
	// Rec. 601 luma weights
	return uint8((299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000)
}

// grayHistogram builds a 256-bucket luma histogram of a region
func grayHistogram(region *image.RGBA) (hist [256]int, total int) {
	bounds := region.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[grayValue(region.RGBAAt(x, y))]++
			total++
		}
	}
	return hist, total
}

// otsuThreshold computes the threshold maximizing between-class variance over
// a luma histogram
func otsuThreshold(hist [256]int, total int) uint8 {
	if total == 0 {
		return 128
	}

	var sum float64
	for value, count := range hist {
		sum += float64(value) * float64(count)
	}

	var sumBackground, weightBackground float64
	var best float64
	var threshold uint8
	for value, count := range hist {
		weightBackground += float64(count)
		if weightBackground == 0 {
			continue
		}
		weightForeground := float64(total) - weightBackground
		if weightForeground == 0 {
			break
		}
		sumBackground += float64(value) * float64(count)

		meanBackground := sumBackground / weightBackground
		meanForeground := (sum - sumBackground) / weightForeground
		diff := meanBackground - meanForeground
		variance := weightBackground * weightForeground * diff * diff
		if variance > best {
			best = variance
			threshold = uint8(value)
		}
	}
	return threshold
}

// regionBrightness returns the mean luma of a region
func regionBrightness(region *image.RGBA) float64 {
	hist, total := grayHistogram(region)
	if total == 0 {
		return 0
	}
	var sum float64
	for value, count := range hist {
		sum += float64(value) * float64(count)
	}
	return sum / float64(total)
}

// inkColor derives the foreground ink color for synthesized text by
// separating the region into foreground/background with an Otsu threshold.
// Degenerate regions with too few foreground pixels fall back to a light or
// dark ink chosen by overall brightness.
func inkColor(region *image.RGBA) color.RGBA {
	hist, total := grayHistogram(region)
	threshold := otsuThreshold(hist, total)

	bounds := region.Bounds()
	var sumR, sumG, sumB, count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixel := region.RGBAAt(x, y)
			if grayValue(pixel) <= threshold {
				sumR += int(pixel.R)
				sumG += int(pixel.G)
				sumB += int(pixel.B)
				count++
			}
		}
	}

	if count < minForegroundPixels {
		if regionBrightness(region) > 128 {
			return darkInk
		}
		return lightInk
	}

	return color.RGBA{
		R: uint8(sumR / count),
		G: uint8(sumG / count),
		B: uint8(sumB / count),
		A: 255,
	}
}

// overlayPanel blends a subtle flat panel over the region, tinted toward the
// region's brightness class, to raise contrast before text placement
func overlayPanel(region *image.RGBA, bright bool) *image.RGBA {
	bounds := region.Bounds()
	tint := color.RGBA{R: 245, G: 245, B: 245, A: 255}
	if !bright {
		tint = color.RGBA{R: 24, G: 24, B: 24, A: 255}
	}
	panel := image.NewRGBA(bounds)
	draw.Draw(panel, bounds, image.NewUniform(tint), image.Point{}, draw.Src)
	return blend.Opacity(region, panel, 0.15)
}
