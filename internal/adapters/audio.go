// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package adapters maps audio and video sources onto the text and image
// pipelines. The adapters are thin I/O wrappers: speech-to-text and frame
// extraction are external concerns, so audio resolves to a companion
// transcript and video to pre-extracted frame images.
package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"leakwatch/internal/observability"
)

// transcriptExtension is the companion transcript file extension
const transcriptExtension = ".txt"

// AudioAdapter maps audio inputs to transcripts for text-pipeline reuse
type AudioAdapter struct {
	// Observability
	observer *observability.StandardObserver
}

// NewAudioAdapter creates an audio adapter
func NewAudioAdapter(observer *observability.StandardObserver) *AudioAdapter {
	return &AudioAdapter{observer: observer}
}

// ToText returns the transcript for an audio source. A path that already is a
// transcript is read directly; otherwise a sibling .txt companion is used.
// A missing companion degrades to an empty transcript with a warning rather
// than failing: redaction still happens for whatever content is understood.
func (aa *AudioAdapter) ToText(audioPath string) (string, error) {
	if strings.EqualFold(filepath.Ext(audioPath), transcriptExtension) {
		data, err := os.ReadFile(audioPath)
		if err != nil {
			return "", fmt.Errorf("failed to read transcript: %w", err)
		}
		return string(data), nil
	}

	candidate := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + transcriptExtension
	if data, err := os.ReadFile(candidate); err == nil {
		return string(data), nil
	}

	aa.observer.LogWarning("audio_adapter", "to_text", audioPath, "no transcript companion found; continuing with empty transcript")
	return "", nil
}
