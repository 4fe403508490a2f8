package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ExtractedSegment records one ExtractSegment call.
type ExtractedSegment struct {
	OutPath    string
	Start, End time.Duration
}

// MockExtractor implements audio.Extractor by writing placeholder files.
type MockExtractor struct {
	mu sync.Mutex

	MediaDuration time.Duration
	DurationError error
	ExtractError  error
	// FailSegments lists output base names whose extraction fails.
	FailSegments map[string]bool
	// AudioSize is the size of each written file.
	AudioSize int

	Segments []ExtractedSegment
	Full     []string
}

// NewMockExtractor reports the given duration for every input.
func NewMockExtractor(duration time.Duration) *MockExtractor {
	return &MockExtractor{
		MediaDuration: duration,
		FailSegments:  make(map[string]bool),
		AudioSize:     2048,
	}
}

func (m *MockExtractor) ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	m.mu.Lock()
	m.Full = append(m.Full, outPath)
	err := m.ExtractError
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.write(outPath)
}

func (m *MockExtractor) ExtractSegment(ctx context.Context, videoPath, outPath string, start, end time.Duration) error {
	m.mu.Lock()
	m.Segments = append(m.Segments, ExtractedSegment{OutPath: outPath, Start: start, End: end})
	fail := m.FailSegments[filepath.Base(outPath)]
	m.mu.Unlock()

	if fail {
		return fmt.Errorf("FFmpeg error: cannot extract %s", filepath.Base(outPath))
	}
	return m.write(outPath)
}

func (m *MockExtractor) Duration(ctx context.Context, path string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DurationError != nil {
		return 0, m.DurationError
	}
	return m.MediaDuration, nil
}

func (m *MockExtractor) write(path string) error {
	return os.WriteFile(path, make([]byte, m.AudioSize), 0644)
}
