package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	require.NoError(t, os.MkdirAll(safeDir, 0o755))
	require.NoError(t, os.MkdirAll(unsafeDir, 0o755))
	require.NoError(t, os.Symlink(unsafeDir, filepath.Join(safeDir, "evil-symlink")))

	tests := []struct {
		name     string
		filePath string
		wantErr  bool
	}{
		{"file in directory", filepath.Join(safeDir, "walk.geojson"), false},
		{"nested new file", filepath.Join(safeDir, "2026", "03", "walk.html"), false},
		{"dot dot", filepath.Join(safeDir, "..", "walk.png"), true},
		{"relative escape", "../../../etc/passwd", true},
		{"absolute elsewhere", "/etc/passwd", true},
		{"through symlink", filepath.Join(safeDir, "evil-symlink", "walk.png"), true},
		{"directory itself", safeDir, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, safeDir)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPathTraversal)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"4f1c2a9e-7d3b-4c1a-9f0e-2b6d8c5a1e34", "4f1c2a9e-7d3b-4c1a-9f0e-2b6d8c5a1e34"},
		{"../../etc/passwd", "etc_passwd"},
		{"morning walk: park", "morning_walk_park"},
		{"", "unknown"},
		{"...", "unknown"},
		{"a__b", "a__b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	p, err := OutputPath(dir, "../session", ".geojson")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "session.geojson"), p)
}
