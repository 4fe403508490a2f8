package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mp4text/internal/app/model"
)

// CreateVideoFile writes a size-byte placeholder video named name in dir.
func CreateVideoFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("failed to create fixture video: %v", err)
	}
	return path
}

// SetModTime sets both access and modification time of path.
func SetModTime(t *testing.T, path string, ts time.Time) {
	t.Helper()
	if err := os.Chtimes(path, ts, ts); err != nil {
		t.Fatalf("failed to set mod time: %v", err)
	}
}

// TestTranscriptions is sample history data.
var TestTranscriptions = []model.Transcription{
	{
		ID:            1,
		JobID:         "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Engine:        "WhisperCpp",
		Model:         "base",
		FileName:      "podcast_episode_001.mp4",
		FilePath:      "/videos/podcast_episode_001.mp4",
		AudioDuration: 1800.5,
		Transcription: "Welcome to our podcast. Today we're discussing speech recognition.",
		OutputPath:    "/output/podcast_episode_001_transcript_20240115_103000.txt",
		CreatedAt:     time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	},
	{
		ID:           2,
		JobID:        "c7f3a1e2-0d7b-4a1e-9f55-3b0c2f1d9a10",
		Engine:       "OpenAIWhisper",
		Model:        "whisper-1",
		FileName:     "corrupted.mp4",
		FilePath:     "/videos/corrupted.mp4",
		CreatedAt:    time.Date(2024, 1, 16, 14, 45, 0, 0, time.UTC),
		HasError:     true,
		ErrorMessage: "audio extraction failed: FFmpeg error",
	},
}
