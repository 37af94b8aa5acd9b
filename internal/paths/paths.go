// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// SanitizedSibling returns the default sanitized output path for a source
// file: a sibling with ".sanitized" inserted before the extension
// (photo.png -> photo.sanitized.png).
func SanitizedSibling(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	stem := strings.TrimSuffix(sourcePath, ext)
	return stem + ".sanitized" + ext
}

// OutputPath builds a path inside outputDir named after the source file stem
// plus the given suffix (report.txt + ".sanitized.txt" -> outputDir/report.sanitized.txt).
func OutputPath(outputDir, sourcePath, suffix string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+suffix)
}

// SiblingWithExt swaps the extension of a path (out.png + ".overlay.png").
func SiblingWithExt(path, newExt string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + newExt
}

// EnsureParentDir creates the parent directory of a path if missing
func EnsureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
