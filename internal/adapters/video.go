// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"leakwatch/internal/observability"
)

// frameExtensions are the image formats accepted as extracted frames
var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// VideoAdapter funnels videos back into the image pipeline by sampling
// pre-extracted frames. Frames are expected in a sibling "<stem>_frames"
// directory produced by an external extraction step.
type VideoAdapter struct {
	// frameStride samples every Nth frame
	frameStride int

	// maxFrames caps how many frames one video contributes
	maxFrames int

	// Observability
	observer *observability.StandardObserver
}

// NewVideoAdapter creates a video adapter with the given sampling parameters
func NewVideoAdapter(frameStride, maxFrames int, observer *observability.StandardObserver) *VideoAdapter {
	if frameStride < 1 {
		frameStride = 1
	}
	if maxFrames < 1 {
		maxFrames = 1
	}
	return &VideoAdapter{
		frameStride: frameStride,
		maxFrames:   maxFrames,
		observer:    observer,
	}
}

// FrameDir returns the companion frame directory for a video source
func (va *VideoAdapter) FrameDir(videoPath string) string {
	stem := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	return stem + "_frames"
}

// ExtractFrames samples frame image paths for a video source at the
// configured stride, up to the configured maximum. An unopenable source
// (missing or empty frame directory) yields an empty set with a warning,
// never an error.
func (va *VideoAdapter) ExtractFrames(videoPath string) []string {
	frameDir := va.FrameDir(videoPath)
	listing, err := os.ReadDir(frameDir)
	if err != nil {
		va.observer.LogWarning("video_adapter", "extract_frames", videoPath, "unable to open frame directory; continuing with no frames")
		return nil
	}

	var frames []string
	for _, entry := range listing {
		if entry.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			frames = append(frames, filepath.Join(frameDir, entry.Name()))
		}
	}
	sort.Strings(frames)

	var sampled []string
	for i := 0; i < len(frames) && len(sampled) < va.maxFrames; i += va.frameStride {
		sampled = append(sampled, frames[i])
	}

	if len(sampled) == 0 {
		va.observer.LogWarning("video_adapter", "extract_frames", videoPath, "video contained no readable frames")
	}
	return sampled
}
