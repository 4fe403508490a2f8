package convert

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mp4text/internal/app/util/files"
)

func TestPrintDetails(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		file string
		size int
		want string
	}{
		{"video", "Talk.MP4", 2048, "file: Talk.MP4 (2.0 KiB, .mp4)\n"},
		{"no extension", "clip", 10, "file: clip (10 B, no extension)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, make([]byte, tt.size), 0644))

			var buf bytes.Buffer
			printDetails(&buf, files.GetFileInfo(path))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
