// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package explain

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"leakwatch/internal/detector"
	"leakwatch/internal/paths"
)

// AuditEntry is one append-only record of what was processed, what was found,
// and what was done about it
type AuditEntry struct {
	Timestamp   string               `json:"timestamp"`
	Modality    string               `json:"modality"`
	Source      string               `json:"source"`
	Output      string               `json:"output,omitempty"`
	Artifacts   []string             `json:"artifacts"`
	EntityCount int                  `json:"entity_count"`
	Entities    []AuditEntitySummary `json:"entities"`
}

// AuditEntitySummary is the per-entity slice of an audit entry
type AuditEntitySummary struct {
	Label      string                `json:"label"`
	Confidence float64               `json:"confidence"`
	Text       string                `json:"text,omitempty"`
	Span       *detector.Span        `json:"span,omitempty"`
	BBox       *detector.BoundingBox `json:"bbox,omitempty"`
	Mitigation string                `json:"mitigation"`
}

// auditLocks serializes appends per log path. The log file is a shared
// resource when multiple pipelines run against the same path.
var auditLocks sync.Map

// RecordAudit appends one newline-delimited JSON record for the result to the
// audit log at auditPath and returns that path.
func RecordAudit(result *detector.DetectionResult, auditPath string) (string, error) {
	entry := AuditEntry{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Modality:    result.Modality.String(),
		Source:      result.SourcePath,
		Output:      result.MitigatedOutput,
		Artifacts:   append([]string{}, result.Artifacts...),
		EntityCount: len(result.Entities),
		Entities:    make([]AuditEntitySummary, 0, len(result.Entities)),
	}
	for _, entity := range result.Entities {
		entry.Entities = append(entry.Entities, AuditEntitySummary{
			Label:      entity.Label,
			Confidence: entity.Confidence,
			Text:       entity.Text,
			Span:       entity.Span,
			BBox:       entity.BBox,
			Mitigation: entity.Mitigation.String(),
		})
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if err := paths.EnsureParentDir(auditPath); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	lock, _ := auditLocks.LoadOrStore(auditPath, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	file, err := os.OpenFile(auditPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return "", fmt.Errorf("failed to append audit entry: %w", err)
	}
	return auditPath, nil
}
