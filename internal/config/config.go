// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// MaskStyle selects how the text engine rewrites a sensitive span
type MaskStyle string

const (
	// MaskAsterisks replaces each original character with an asterisk
	MaskAsterisks MaskStyle = "asterisks"
	// MaskSynthetic replaces the span with a <LABEL> token
	MaskSynthetic MaskStyle = "synthetic"
	// MaskBrackets replaces the span with a [REDACTED:LABEL] token (default)
	MaskBrackets MaskStyle = "brackets"
)

// Config represents the application configuration
type Config struct {
	// App-level settings
	App struct {
		OutputDir string `yaml:"output_dir"`
	} `yaml:"app"`

	// Text modality settings
	Text TextConfig `yaml:"text"`

	// Image modality settings
	Image ImageConfig `yaml:"image"`

	// Explainability and audit settings
	Explainability ExplainabilityConfig `yaml:"explainability"`

	// Audio modality toggle (adapter reduces audio to text)
	Audio ModalityToggle `yaml:"audio"`

	// Video modality settings (adapter reduces video to sampled frames)
	Video VideoConfig `yaml:"video"`
}

// TextConfig holds text detection and mitigation settings
type TextConfig struct {
	// MaskStyle selects the replacement style for mitigated spans
	MaskStyle MaskStyle `yaml:"mask_style"`

	// ConfidenceThreshold is the minimum confidence for a text finding
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// MaxDocLength caps how much of a buffer is handed to detectors
	MaxDocLength int `yaml:"max_doc_length"`

	// RegexEntities configures the pattern detector
	RegexEntities []RegexEntityConfig `yaml:"regex_entities"`
}

// RegexEntityConfig is one configured regex pattern for the text detector
type RegexEntityConfig struct {
	// Name becomes the entity label (e.g. PHONE, EMAIL)
	Name string `yaml:"name"`

	// Pattern is the regular expression to match
	Pattern string `yaml:"pattern"`

	// Action is the mitigation the pattern pre-selects (mask, replace)
	Action string `yaml:"action"`
}

// ImageConfig holds image detection and mitigation settings
type ImageConfig struct {
	// FaceBlurKernel is the Gaussian kernel size for face regions.
	// Coerced to the nearest odd value >= 3.
	FaceBlurKernel int `yaml:"face_blur_kernel"`

	// MinConfidence is the OCR confidence floor
	MinConfidence float64 `yaml:"min_confidence"`

	// EnableOCR toggles text-region detection
	EnableOCR bool `yaml:"enable_ocr"`
}

// ExplainabilityConfig holds artifact and audit settings
type ExplainabilityConfig struct {
	// SaveTextSpans toggles span report artifacts
	SaveTextSpans bool `yaml:"save_text_spans"`

	// SaveImageOverlays toggles overlay image artifacts
	SaveImageOverlays bool `yaml:"save_image_overlays"`

	// AuditLogPath is the append-only audit log; empty disables auditing
	AuditLogPath string `yaml:"audit_log_path"`
}

// ModalityToggle enables or disables an adapter-backed modality
type ModalityToggle struct {
	Enabled bool `yaml:"enabled"`
}

// VideoConfig holds video adapter settings
type VideoConfig struct {
	Enabled bool `yaml:"enabled"`

	// FrameStride samples every Nth extracted frame
	FrameStride int `yaml:"frame_stride"`

	// MaxFrames caps how many frames one video contributes
	MaxFrames int `yaml:"max_frames"`
}

// DefaultConfig returns the built-in configuration used when no file is given
func DefaultConfig() *Config {
	config := &Config{}
	config.App.OutputDir = "artifacts"
	config.Text.MaskStyle = MaskBrackets
	config.Text.ConfidenceThreshold = 0.5
	config.Text.MaxDocLength = 10000
	config.Image.FaceBlurKernel = 35
	config.Image.MinConfidence = 0.3
	config.Image.EnableOCR = true
	config.Explainability.SaveTextSpans = true
	config.Explainability.SaveImageOverlays = true
	config.Explainability.AuditLogPath = filepath.Join("artifacts", "audit.log")
	config.Audio.Enabled = false
	config.Video.Enabled = false
	config.Video.FrameStride = 15
	config.Video.MaxFrames = 5
	return config
}

// LoadConfig loads configuration from the specified file path.
// An empty path returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Booleans that default to true need restoring when the file omits them,
	// because unmarshaling zeroes absent fields
	defaultEnableOCR := config.Image.EnableOCR
	defaultSaveSpans := config.Explainability.SaveTextSpans
	defaultSaveOverlays := config.Explainability.SaveImageOverlays

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if !containsField(data, "image", "enable_ocr") {
		config.Image.EnableOCR = defaultEnableOCR
	}
	if !containsField(data, "explainability", "save_text_spans") {
		config.Explainability.SaveTextSpans = defaultSaveSpans
	}
	if !containsField(data, "explainability", "save_image_overlays") {
		config.Explainability.SaveImageOverlays = defaultSaveOverlays
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// FindConfigFile looks for a configuration file in standard locations
func FindConfigFile() string {
	candidates := []string{
		"leakwatch.yaml",
		"leakwatch.yml",
		filepath.Join("config", "leakwatch.yaml"),
	}
	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, ".leakwatch", "config.yaml")
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// ValidateConfig checks configuration values and normalizes coercible ones
func ValidateConfig(config *Config) error {
	switch config.Text.MaskStyle {
	case MaskAsterisks, MaskSynthetic, MaskBrackets:
	case "":
		config.Text.MaskStyle = MaskBrackets
	default:
		return fmt.Errorf("unknown mask style: %q", config.Text.MaskStyle)
	}

	if config.Text.ConfidenceThreshold < 0 || config.Text.ConfidenceThreshold > 1 {
		return fmt.Errorf("text confidence threshold must be in [0, 1], got %v", config.Text.ConfidenceThreshold)
	}
	if config.Image.MinConfidence < 0 || config.Image.MinConfidence > 1 {
		return fmt.Errorf("image min confidence must be in [0, 1], got %v", config.Image.MinConfidence)
	}
	if config.Text.MaxDocLength <= 0 {
		config.Text.MaxDocLength = 10000
	}

	config.Image.FaceBlurKernel = CoerceOddKernel(config.Image.FaceBlurKernel)

	if config.Video.FrameStride < 1 {
		config.Video.FrameStride = 1
	}
	if config.Video.MaxFrames < 1 {
		config.Video.MaxFrames = 1
	}

	for i, entity := range config.Text.RegexEntities {
		if entity.Name == "" {
			return fmt.Errorf("regex entity %d has no name", i)
		}
		if _, err := regexp.Compile(entity.Pattern); err != nil {
			return fmt.Errorf("regex entity %q has invalid pattern: %w", entity.Name, err)
		}
	}

	return nil
}

// CoerceOddKernel coerces a blur kernel size to the nearest odd value >= 3
func CoerceOddKernel(kernel int) int {
	if kernel < 3 {
		return 3
	}
	if kernel%2 == 0 {
		return kernel + 1
	}
	return kernel
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// containsField checks whether a nested YAML field is present in raw data
func containsField(data []byte, path ...string) bool {
	var parsed map[string]interface{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return false
	}

	current := parsed
	for i, field := range path {
		value, exists := current[field]
		if !exists {
			return false
		}
		if i == len(path)-1 {
			return true
		}
		next, ok := value.(map[string]interface{})
		if !ok {
			return false
		}
		current = next
	}
	return false
}
