package testutil

import (
	"sort"
	"sync"
	"time"

	"mp4text/internal/app/model"
)

// MockTranscriptionDAO is an in-memory repository.TranscriptionDAO.
// ErrorMap keys are method names.
type MockTranscriptionDAO struct {
	mu             sync.Mutex
	transcriptions []model.Transcription
	nextID         int
	closed         bool

	ErrorMap map[string]error
}

// NewMockTranscriptionDAO returns an empty store.
func NewMockTranscriptionDAO() *MockTranscriptionDAO {
	return &MockTranscriptionDAO{
		nextID:   1,
		ErrorMap: make(map[string]error),
	}
}

func (m *MockTranscriptionDAO) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ErrorMap["Close"]; err != nil {
		return err
	}
	m.closed = true
	return nil
}

func (m *MockTranscriptionDAO) Record(t *model.Transcription) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ErrorMap["Record"]; err != nil {
		return 0, err
	}

	t.ID = m.nextID
	m.nextID++
	if t.JobID == "" {
		t.JobID = "job-" + time.Now().Format("150405.000000")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	m.transcriptions = append(m.transcriptions, *t)
	return int64(t.ID), nil
}

func (m *MockTranscriptionDAO) CheckIfFileProcessed(fileName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ErrorMap["CheckIfFileProcessed"]; err != nil {
		return 0, err
	}

	for i := len(m.transcriptions) - 1; i >= 0; i-- {
		t := m.transcriptions[i]
		if t.FileName == fileName && !t.HasError {
			return t.ID, nil
		}
	}
	return 0, nil
}

func (m *MockTranscriptionDAO) List(limit int) ([]model.Transcription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ErrorMap["List"]; err != nil {
		return nil, err
	}

	out := append([]model.Transcription(nil), m.transcriptions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Records returns every stored row in insertion order.
func (m *MockTranscriptionDAO) Records() []model.Transcription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Transcription(nil), m.transcriptions...)
}

// Closed reports whether Close succeeded.
func (m *MockTranscriptionDAO) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
