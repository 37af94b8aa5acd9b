// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pipeline sequences detection, mitigation, explainability artifact
// generation and audit recording per modality. Audio and video reduce to the
// text and image paths through their adapters.
package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"

	"leakwatch/internal/adapters"
	"leakwatch/internal/config"
	"leakwatch/internal/detector"
	"leakwatch/internal/explain"
	"leakwatch/internal/mitigation"
	"leakwatch/internal/observability"
	"leakwatch/internal/paths"
	imagevalidator "leakwatch/internal/validators/image"
	"leakwatch/internal/validators/pattern"
)

// ErrModalityDisabled signals that a modality is toggled off in configuration.
// The check runs before any detection work starts.
var ErrModalityDisabled = errors.New("modality disabled in configuration")

// File extensions dispatched by folder processing
var (
	textExtensions  = map[string]bool{".txt": true, ".md": true, ".json": true}
	imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".bmp": true}
)

// Manager coordinates modality-specific detectors and mitigation engines.
// One Manager owns each DetectionResult for the duration of a run; no entity
// is shared across concurrent runs.
type Manager struct {
	config *config.Config

	textDetector  detector.TextDetector
	imageDetector detector.ImageDetector

	textEngine  *mitigation.TextEngine
	imageEngine *mitigation.ImageEngine

	audioAdapter *adapters.AudioAdapter
	videoAdapter *adapters.VideoAdapter

	// Observability
	observer *observability.StandardObserver
}

// NewManager builds a pipeline from the configuration with the built-in
// pattern detector and no face/OCR recognizers wired in (both degrade to
// empty results until provided).
func NewManager(cfg *config.Config, observer *observability.StandardObserver) (*Manager, error) {
	return NewManagerWithRecognizers(cfg, observer, imagevalidator.UnavailableFaceLocator{}, imagevalidator.UnavailableTextRegionReader{})
}

// NewManagerWithRecognizers builds a pipeline with explicit face and OCR
// recognizers, which remain external collaborators behind capability gates.
func NewManagerWithRecognizers(cfg *config.Config, observer *observability.StandardObserver, faces detector.FaceLocator, reader detector.TextRegionReader) (*Manager, error) {
	textDetector, err := pattern.NewValidator(cfg.Text, observer)
	if err != nil {
		return nil, fmt.Errorf("failed to build text detector: %w", err)
	}

	return &Manager{
		config:        cfg,
		textDetector:  textDetector,
		imageDetector: imagevalidator.NewDetector(cfg.Image, faces, reader, textDetector, observer),
		textEngine:    mitigation.NewTextEngine(cfg.Text, observer),
		imageEngine:   mitigation.NewImageEngine(cfg.Image, observer),
		audioAdapter:  adapters.NewAudioAdapter(observer),
		videoAdapter:  adapters.NewVideoAdapter(cfg.Video.FrameStride, cfg.Video.MaxFrames, observer),
		observer:      observer,
	}, nil
}

// ProcessText runs the text path for one file: read, detect, mitigate, write
// the sanitized buffer, render the span report, record the audit entry.
func (m *Manager) ProcessText(path string) (*detector.DetectionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read text file %s: %w", path, err)
	}
	return m.processTextPayload(path, string(data), ".sanitized.txt", detector.ModalityText)
}

// ProcessAudio runs the audio path: the adapter supplies a transcript which
// then flows through the text path under the audio modality. The transcript
// itself is kept as an artifact.
func (m *Manager) ProcessAudio(path string) (*detector.DetectionResult, error) {
	if !m.config.Audio.Enabled {
		return nil, fmt.Errorf("audio: %w", ErrModalityDisabled)
	}

	transcript, err := m.audioAdapter.ToText(path)
	if err != nil {
		return nil, err
	}

	transcriptPath := paths.OutputPath(m.config.App.OutputDir, path, ".transcript.txt")
	if err := paths.EnsureParentDir(transcriptPath); err != nil {
		return nil, fmt.Errorf("failed to ensure output directory: %w", err)
	}
	if err := os.WriteFile(transcriptPath, []byte(transcript), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write transcript: %w", err)
	}

	result, err := m.processTextPayload(path, transcript, ".audio.sanitized.txt", detector.ModalityAudio)
	if err != nil {
		return nil, err
	}
	result.Artifacts = append(result.Artifacts, transcriptPath)
	return result, nil
}

// ProcessImage runs the image path for one file. The empty outputPath selects
// the default location inside the configured output directory.
func (m *Manager) ProcessImage(path, outputPath string) (*detector.DetectionResult, error) {
	finishTiming := m.observer.StartTiming("pipeline", "process_image", path)

	img, err := imgio.Open(path)
	if err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("unable to load image %s: %w", path, err)
	}

	entities, err := m.imageDetector.DetectImage(img)
	if err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	if outputPath == "" {
		outputPath = paths.OutputPath(m.config.App.OutputDir, path, ".sanitized"+filepath.Ext(path))
	}

	mitigatedPath, mitigatedEntities, err := m.imageEngine.Mitigate(path, entities, outputPath)
	if err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	var artifacts []string
	if m.config.Explainability.SaveImageOverlays && len(mitigatedEntities) > 0 {
		overlayPath := paths.SiblingWithExt(mitigatedPath, ".overlay.png")
		overlay, err := explain.RenderOverlay(mitigatedPath, mitigatedEntities, overlayPath)
		if err != nil {
			finishTiming(false, map[string]interface{}{"error": err.Error()})
			return nil, err
		}
		artifacts = append(artifacts, overlay)
	}

	result := &detector.DetectionResult{
		SourcePath:      path,
		Modality:        detector.ModalityImage,
		Entities:        mitigatedEntities,
		MitigatedOutput: mitigatedPath,
		Artifacts:       artifacts,
	}
	if err := m.attachAudit(result); err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	finishTiming(true, map[string]interface{}{"entity_count": len(mitigatedEntities)})
	return result, nil
}

// ProcessVideo samples frames through the video adapter, runs each through
// the image path, and aggregates the per-frame findings plus a manifest of
// sanitized frame paths into one result.
func (m *Manager) ProcessVideo(path string) (*detector.DetectionResult, error) {
	if !m.config.Video.Enabled {
		return nil, fmt.Errorf("video: %w", ErrModalityDisabled)
	}

	framePaths := m.videoAdapter.ExtractFrames(path)

	var aggregated []detector.DetectedEntity
	var artifacts []string
	var manifest []string
	for _, framePath := range framePaths {
		frameResult, err := m.ProcessImage(framePath, "")
		if err != nil {
			m.observer.LogWarning("pipeline", "process_video", framePath, "skipping unreadable frame")
			continue
		}
		aggregated = append(aggregated, frameResult.Entities...)
		artifacts = append(artifacts, frameResult.Artifacts...)
		artifacts = append(artifacts, framePath)
		if frameResult.MitigatedOutput != "" {
			artifacts = append(artifacts, frameResult.MitigatedOutput)
			manifest = append(manifest, frameResult.MitigatedOutput)
		}
	}

	manifestPath := paths.OutputPath(m.config.App.OutputDir, path, ".video.manifest.txt")
	if err := paths.EnsureParentDir(manifestPath); err != nil {
		return nil, fmt.Errorf("failed to ensure output directory: %w", err)
	}
	if err := os.WriteFile(manifestPath, []byte(strings.Join(manifest, "\n")), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write frame manifest: %w", err)
	}

	result := &detector.DetectionResult{
		SourcePath:      path,
		Modality:        detector.ModalityVideo,
		Entities:        aggregated,
		MitigatedOutput: manifestPath,
		Artifacts:       artifacts,
	}
	if err := m.attachAudit(result); err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessFolder enumerates files under a folder, dispatches by extension to
// the text or image path, and continues past individual unreadable files.
// One bad file never aborts the batch; only successful results are returned.
func (m *Manager) ProcessFolder(folder string, recursive bool) ([]*detector.DetectionResult, error) {
	var results []*detector.DetectionResult

	walk := func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			m.observer.LogWarning("pipeline", "process_folder", path, "skipping unreadable entry")
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if !recursive && path != folder {
				return fs.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case textExtensions[ext]:
			result, err := m.ProcessText(path)
			if err != nil {
				m.observer.LogWarning("pipeline", "process_folder", path, "skipping unreadable text file")
				return nil
			}
			results = append(results, result)
		case imageExtensions[ext]:
			result, err := m.ProcessImage(path, "")
			if err != nil {
				m.observer.LogWarning("pipeline", "process_folder", path, "skipping unreadable image")
				return nil
			}
			results = append(results, result)
		}
		return nil
	}

	if err := filepath.WalkDir(folder, walk); err != nil {
		return nil, fmt.Errorf("folder walk failed: %w", err)
	}
	return results, nil
}

// processTextPayload is the shared text-modality path used by text and audio
func (m *Manager) processTextPayload(sourcePath, buffer, suffix string, modality detector.Modality) (*detector.DetectionResult, error) {
	finishTiming := m.observer.StartTiming("pipeline", "process_text", sourcePath)

	entities, err := m.textDetector.DetectText(buffer)
	if err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	entities = m.filterByConfidence(entities)
	for i := range entities {
		entities[i].Modality = modality
	}

	sanitized, mitigatedEntities, err := m.textEngine.Mitigate(buffer, entities)
	if err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	outputPath := paths.OutputPath(m.config.App.OutputDir, sourcePath, suffix)
	if err := paths.EnsureParentDir(outputPath); err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("failed to ensure output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(sanitized), 0o644); err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("failed to write sanitized text: %w", err)
	}

	var artifacts []string
	if m.config.Explainability.SaveTextSpans && len(mitigatedEntities) > 0 {
		reportPath := paths.SiblingWithExt(outputPath, ".spans.txt")
		report, err := explain.RenderSpanReport(sanitized, mitigatedEntities, reportPath)
		if err != nil {
			finishTiming(false, map[string]interface{}{"error": err.Error()})
			return nil, err
		}
		artifacts = append(artifacts, report)
	}

	result := &detector.DetectionResult{
		SourcePath:      sourcePath,
		Modality:        modality,
		Entities:        mitigatedEntities,
		MitigatedOutput: outputPath,
		Artifacts:       artifacts,
	}
	if err := m.attachAudit(result); err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	finishTiming(true, map[string]interface{}{"entity_count": len(mitigatedEntities)})
	return result, nil
}

// filterByConfidence drops text findings below the configured threshold
func (m *Manager) filterByConfidence(entities []detector.DetectedEntity) []detector.DetectedEntity {
	if m.config.Text.ConfidenceThreshold <= 0 {
		return entities
	}
	kept := entities[:0]
	for _, entity := range entities {
		if entity.Confidence >= m.config.Text.ConfidenceThreshold {
			kept = append(kept, entity)
		}
	}
	return kept
}

// attachAudit records the result in the audit log when auditing is enabled
func (m *Manager) attachAudit(result *detector.DetectionResult) error {
	if m.config.Explainability.AuditLogPath == "" {
		return nil
	}
	auditPath, err := explain.RecordAudit(result, m.config.Explainability.AuditLogPath)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	result.AuditLog = auditPath
	return nil
}
