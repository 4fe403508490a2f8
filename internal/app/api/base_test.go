package api

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// WhisperTranscriber is a minimal engine used to exercise Base.
type WhisperTranscriber struct {
	Base
	loadErr error
}

func newWhisperTranscriber(model string) *WhisperTranscriber {
	return &WhisperTranscriber{Base: NewBase(model)}
}

func (w *WhisperTranscriber) LoadModel(ctx context.Context, cb Callbacks) error {
	if w.loadErr != nil {
		return w.loadErr
	}
	cb.ReportProgress(100)
	w.SetModel(struct{}{})
	return nil
}

func (w *WhisperTranscriber) TranscribeAudio(ctx context.Context, audioPath string, cb Callbacks, opts Options) (*Result, error) {
	return &Result{Text: "ok", Engine: EngineName(w), Model: w.ModelName()}, nil
}

func (w *WhisperTranscriber) ModelInfo() ModelInfo {
	return ModelInfo{InfoName: w.ModelName(), InfoLoaded: w.IsModelLoaded()}
}

func (w *WhisperTranscriber) Cleanup() error {
	w.ReleaseModel()
	return nil
}

type Engine struct{}

var _ Transcriber = (*WhisperTranscriber)(nil)

func writeSizedFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func TestNewBaseIsUnloaded(t *testing.T) {
	w := newWhisperTranscriber("base")

	assert.False(t, w.IsModelLoaded())
	assert.Equal(t, "base", w.ModelName())
	assert.Nil(t, w.Model())
}

func TestLoadAndCleanupLifecycle(t *testing.T) {
	w := newWhisperTranscriber("small")

	var progress []int
	err := w.LoadModel(context.Background(), Callbacks{Progress: func(p int) { progress = append(progress, p) }})
	require.NoError(t, err)
	assert.True(t, w.IsModelLoaded())
	assert.Equal(t, []int{100}, progress)

	require.NoError(t, w.Cleanup())
	assert.False(t, w.IsModelLoaded())
}

func TestFailedLoadLeavesUnloaded(t *testing.T) {
	w := newWhisperTranscriber("tiny")
	w.loadErr = assert.AnError

	assert.Error(t, w.LoadModel(context.Background(), Callbacks{}))
	assert.False(t, w.IsModelLoaded())
}

func TestCleanupIsIdempotent(t *testing.T) {
	w := newWhisperTranscriber("base")

	assert.NoError(t, w.Cleanup())
	assert.False(t, w.IsModelLoaded())
	assert.NoError(t, w.Cleanup())
	assert.False(t, w.IsModelLoaded())
}

func TestValidateAudioFile(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantOK  bool
		wantMsg string
	}{
		{
			name:    "missing",
			path:    func(t *testing.T) string { return "/no/such/file.wav" },
			wantOK:  false,
			wantMsg: "audio file does not exist: /no/such/file.wav",
		},
		{
			name:    "empty",
			path:    func(t *testing.T) string { return writeSizedFile(t, "empty.wav", 0) },
			wantOK:  false,
			wantMsg: "audio file is empty",
		},
		{
			name:    "too small",
			path:    func(t *testing.T) string { return writeSizedFile(t, "small.wav", 500) },
			wantOK:  false,
			wantMsg: "audio file too small (500 bytes)",
		},
		{
			name:    "just under threshold",
			path:    func(t *testing.T) string { return writeSizedFile(t, "under.wav", 1023) },
			wantOK:  false,
			wantMsg: "audio file too small (1023 bytes)",
		},
		{
			name:    "exactly threshold",
			path:    func(t *testing.T) string { return writeSizedFile(t, "exact.wav", 1024) },
			wantOK:  true,
			wantMsg: "audio file validation passed",
		},
		{
			name:    "valid",
			path:    func(t *testing.T) string { return writeSizedFile(t, "ok.wav", 2048) },
			wantOK:  true,
			wantMsg: "audio file validation passed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := ValidateAudioFile(tt.path(t))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestBaseValidateAudioFileDelegates(t *testing.T) {
	w := newWhisperTranscriber("base")
	ok, msg := w.ValidateAudioFile("/no/such/file.wav")
	assert.False(t, ok)
	assert.Equal(t, "audio file does not exist: /no/such/file.wav", msg)
}

func TestEngineName(t *testing.T) {
	type TranscriberForTests struct{}
	type MidTranscriberName struct{}

	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"pointer with suffix", newWhisperTranscriber("base"), "Whisper"},
		{"value with suffix", WhisperTranscriber{}, "Whisper"},
		{"no suffix", Engine{}, "Engine"},
		{"pointer without suffix", &Engine{}, "Engine"},
		{"prefix occurrence", TranscriberForTests{}, "ForTests"},
		{"mid occurrence", MidTranscriberName{}, "MidName"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EngineName(tt.in))
		})
	}
}

func TestCallbacksAreNilSafe(t *testing.T) {
	var cb Callbacks
	assert.NotPanics(t, func() {
		cb.ReportProgress(50)
		cb.ReportStatus("loading")
		cb.Scaled(10, 90).ReportProgress(50)
	})
}

func TestCallbacksClampAndScale(t *testing.T) {
	var got []int
	var status []string
	cb := Callbacks{
		Progress: func(p int) { got = append(got, p) },
		Status:   func(s string) { status = append(status, s) },
	}

	cb.ReportProgress(-5)
	cb.ReportProgress(150)
	cb.Scaled(10, 90).ReportProgress(50)
	cb.Scaled(10, 90).ReportStatus("half way")

	assert.Equal(t, []int{0, 100, 50}, got)
	assert.Equal(t, []string{"half way"}, status)
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{Prompt: "hello"}.WithDefaults()

	assert.Equal(t, LanguageAuto, opts.Language)
	assert.Equal(t, DefaultBeamSize, opts.BeamSize)
	assert.Equal(t, "hello", opts.Prompt)
	assert.True(t, opts.AutoLanguage())
	assert.False(t, Options{Language: "zh"}.AutoLanguage())
	assert.Equal(t, DefaultOptions(), Options{}.WithDefaults())
}
