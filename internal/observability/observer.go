// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"encoding/json"
	"io"
	"time"
)

// StandardObserver implements observability for all pipeline components
type StandardObserver struct {
	level  ObservabilityLevel
	writer io.Writer
}

// ObservabilityLevel controls how much the observer emits
type ObservabilityLevel int

const (
	// ObservabilityOff disables all output
	ObservabilityOff ObservabilityLevel = 0
	// ObservabilityMetrics records operations without emitting JSON
	ObservabilityMetrics ObservabilityLevel = 1
	// ObservabilityDebug emits one JSON event per operation
	ObservabilityDebug ObservabilityLevel = 2
)

// NewStandardObserver creates an observability component
func NewStandardObserver(level ObservabilityLevel, writer io.Writer) *StandardObserver {
	return &StandardObserver{
		level:  level,
		writer: writer,
	}
}

// StartTiming returns a function to complete timing for an operation
func (o *StandardObserver) StartTiming(component, operation, sourcePath string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		duration := time.Since(start)

		data := ObservabilityData{
			Component:  component,
			Operation:  operation,
			SourcePath: sourcePath,
			DurationMs: duration.Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		}

		o.LogOperation(data)
	}
}

// LogOperation logs operation data
func (o *StandardObserver) LogOperation(data ObservabilityData) {
	if o == nil || o.level == ObservabilityOff || o.writer == nil {
		return
	}

	data.RequestID = "req-" + time.Now().Format("20060102-150405")

	// Only emit JSON in debug mode
	if o.level == ObservabilityDebug {
		json.NewEncoder(o.writer).Encode(data)
	}
}

// LogWarning records a soft-degradation condition (missing transcript, empty
// frame set, unavailable recognizer). Warnings are emitted at metrics level
// and above because degraded runs must stay visible.
func (o *StandardObserver) LogWarning(component, operation, sourcePath, message string) {
	if o == nil || o.level == ObservabilityOff || o.writer == nil {
		return
	}

	data := ObservabilityData{
		Component:  component,
		Operation:  operation,
		SourcePath: sourcePath,
		Success:    false,
		Warning:    message,
		RequestID:  "req-" + time.Now().Format("20060102-150405"),
	}
	json.NewEncoder(o.writer).Encode(data)
}

// ObservabilityData is the event record shared by all components
type ObservabilityData struct {
	Component   string                 `json:"component"`
	Operation   string                 `json:"operation"`
	RequestID   string                 `json:"request_id"`
	SourcePath  string                 `json:"source_path,omitempty"`
	DurationMs  int64                  `json:"duration_ms,omitempty"`
	Success     bool                   `json:"success"`
	Warning     string                 `json:"warning,omitempty"`
	Error       string                 `json:"error,omitempty"`
	EntityCount int                    `json:"entity_count,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
