package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"mp4text/internal/app/api"
	apperrors "mp4text/internal/app/errors"
)

// MockTranscriber is a configurable api.Transcriber. Responses and errors
// are keyed by the base name of the audio file.
type MockTranscriber struct {
	api.Base
	mock.Mock
	mu sync.Mutex

	DefaultResponse string
	DefaultLatency  time.Duration
	LoadError       error
	ResponseMap     map[string]string
	ErrorMap        map[string]error

	// UseTestify routes TranscribeAudio through mock.Called.
	UseTestify bool

	LoadCount    int
	CleanupCount int
	CallHistory  []TranscriptionCall
}

// TranscriptionCall records one TranscribeAudio call.
type TranscriptionCall struct {
	AudioPath string
	Options   api.Options
	Timestamp time.Time
	Error     error
}

// NewMockTranscriber returns an unloaded mock for model "mock-model".
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{
		Base:            api.NewBase("mock-model"),
		DefaultResponse: "This is a mock transcription result.",
		ResponseMap:     make(map[string]string),
		ErrorMap:        make(map[string]error),
	}
}

// WithResponse sets the text returned for audio files named name.
func (m *MockTranscriber) WithResponse(name, text string) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResponseMap[name] = text
	return m
}

// WithError makes transcription of audio files named name fail.
func (m *MockTranscriber) WithError(name string, err error) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorMap[name] = err
	return m
}

// WithLoadError makes LoadModel fail.
func (m *MockTranscriber) WithLoadError(err error) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadError = err
	return m
}

func (m *MockTranscriber) LoadModel(ctx context.Context, cb api.Callbacks) error {
	m.mu.Lock()
	m.LoadCount++
	loadErr := m.LoadError
	m.mu.Unlock()

	cb.ReportStatus("loading mock model")
	if loadErr != nil {
		return apperrors.Wrap(apperrors.ErrModelLoadFailed, loadErr.Error())
	}
	m.SetModel(struct{}{})
	cb.ReportProgress(100)
	return nil
}

func (m *MockTranscriber) TranscribeAudio(ctx context.Context, audioPath string, cb api.Callbacks, opts api.Options) (*api.Result, error) {
	if !m.IsModelLoaded() {
		return nil, apperrors.ErrModelNotLoaded
	}
	if valid, msg := m.ValidateAudioFile(audioPath); !valid {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAudio, msg)
	}

	if m.UseTestify {
		args := m.Called(ctx, audioPath, opts)
		var result *api.Result
		if r := args.Get(0); r != nil {
			result = r.(*api.Result)
		}
		m.track(audioPath, opts, args.Error(1))
		return result, args.Error(1)
	}

	if m.DefaultLatency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.DefaultLatency):
		}
	}

	name := filepath.Base(audioPath)
	m.mu.Lock()
	err, failed := m.ErrorMap[name]
	text, ok := m.ResponseMap[name]
	if !ok {
		text = m.DefaultResponse
	}
	m.mu.Unlock()

	m.track(audioPath, opts, err)
	if failed {
		return nil, err
	}

	cb.ReportProgress(50)
	cb.ReportProgress(100)
	return &api.Result{
		Text:   text,
		Engine: api.EngineName(m),
		Model:  m.ModelName(),
	}, nil
}

func (m *MockTranscriber) track(audioPath string, opts api.Options, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallHistory = append(m.CallHistory, TranscriptionCall{
		AudioPath: audioPath,
		Options:   opts,
		Timestamp: time.Now(),
		Error:     err,
	})
}

// Calls returns a copy of the call history.
func (m *MockTranscriber) Calls() []TranscriptionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranscriptionCall(nil), m.CallHistory...)
}

func (m *MockTranscriber) ModelInfo() api.ModelInfo {
	loaded := m.IsModelLoaded()
	return api.ModelInfo{
		api.InfoName:   m.ModelName(),
		api.InfoEngine: api.EngineName(m),
		api.InfoLoaded: loaded,
		api.InfoStatus: api.StatusText(loaded),
	}
}

func (m *MockTranscriber) Cleanup() error {
	m.mu.Lock()
	m.CleanupCount++
	m.mu.Unlock()
	m.ReleaseModel()
	return nil
}
