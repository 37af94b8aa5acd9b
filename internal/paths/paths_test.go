// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizedSibling(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"photo.png", "photo.sanitized.png"},
		{filepath.Join("dir", "doc.txt"), filepath.Join("dir", "doc.sanitized.txt")},
		{"noext", "noext.sanitized"},
	}
	for _, tc := range cases {
		if got := SanitizedSibling(tc.in); got != tc.want {
			t.Errorf("SanitizedSibling(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("artifacts", filepath.Join("in", "report.txt"), ".sanitized.txt")
	want := filepath.Join("artifacts", "report.sanitized.txt")
	if got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

func TestSiblingWithExt(t *testing.T) {
	if got := SiblingWithExt("out.png", ".overlay.png"); got != "out.overlay.png" {
		t.Errorf("SiblingWithExt = %q", got)
	}
}

func TestEnsureParentDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "file.txt")
	if err := EnsureParentDir(target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(filepath.Dir(target))
	if err != nil || !info.IsDir() {
		t.Errorf("parent directory not created: %v", err)
	}
}
