package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateVideoFile(t *testing.T) {
	dir := t.TempDir()

	create := func(name string, size int) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, make([]byte, size), 0644))
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantOK  bool
		wantMsg string
	}{
		{"empty path", "", false, "file path is empty"},
		{"missing", filepath.Join(dir, "missing.mp4"), false, "file does not exist"},
		{"directory", dir, false, "path is not a regular file"},
		{"unsupported extension", create("notes.txt", 10), false, "unsupported file format: .txt"},
		{"no extension", create("video", 10), false, "unsupported file format: "},
		{"empty file", create("empty.mp4", 0), false, "file is empty"},
		{"mp4", create("clip.mp4", 10), true, "file is valid"},
		{"uppercase extension", create("CLIP.MKV", 10), true, "file is valid"},
		{"webm", create("clip.webm", 10), true, "file is valid"},
		{"m4v", create("clip.m4v", 10), true, "file is valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := ValidateVideoFile(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestValidateVideoFileTooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "huge.mp4")
	f, err := os.Create(p)
	require.NoError(t, err)
	// sparse file, no disk usage
	require.NoError(t, f.Truncate(MaxVideoFileSize+1))
	require.NoError(t, f.Close())

	ok, msg := ValidateVideoFile(p)
	assert.False(t, ok)
	assert.Equal(t, "file too large (over 10GB)", msg)
}
