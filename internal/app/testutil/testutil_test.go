package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"mp4text/internal/app/api"
	"mp4text/internal/app/audio"
	"mp4text/internal/app/model"
	"mp4text/internal/app/repository"
)

var (
	_ api.Transcriber             = (*MockTranscriber)(nil)
	_ repository.TranscriptionDAO = (*MockTranscriptionDAO)(nil)
	_ audio.Extractor             = (*MockExtractor)(nil)
)

func TestMockTranscriberResponses(t *testing.T) {
	dir := t.TempDir()
	ext := NewMockExtractor(time.Minute)
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	require.NoError(t, ext.ExtractAudio(context.Background(), "v.mp4", a))
	require.NoError(t, ext.ExtractAudio(context.Background(), "v.mp4", b))

	m := NewMockTranscriber().WithResponse("a.wav", "alpha").WithError("b.wav", errors.New("boom"))

	_, err := m.TranscribeAudio(context.Background(), a, api.Callbacks{}, api.Options{})
	require.Error(t, err, "unloaded mock refuses to transcribe")

	require.NoError(t, m.LoadModel(context.Background(), api.Callbacks{}))
	res, err := m.TranscribeAudio(context.Background(), a, api.Callbacks{}, api.Options{})
	require.NoError(t, err)
	assert.Equal(t, "alpha", res.Text)
	assert.Equal(t, "Mock", res.Engine)

	_, err = m.TranscribeAudio(context.Background(), b, api.Callbacks{}, api.Options{})
	assert.EqualError(t, err, "boom")
	assert.Len(t, m.Calls(), 2)

	require.NoError(t, m.Cleanup())
	assert.False(t, m.IsModelLoaded())
}

func TestMockTranscriberTestify(t *testing.T) {
	path := CreateVideoFile(t, t.TempDir(), "x.wav", 2048)

	m := NewMockTranscriber()
	m.UseTestify = true
	m.On("TranscribeAudio", mock.Anything, path, mock.Anything).Return(&api.Result{Text: "scripted"}, nil).Once()
	require.NoError(t, m.LoadModel(context.Background(), api.Callbacks{}))

	res, err := m.TranscribeAudio(context.Background(), path, api.Callbacks{}, api.Options{})
	require.NoError(t, err)
	assert.Equal(t, "scripted", res.Text)
	m.AssertExpectations(t)
}

func TestMockTranscriptionDAO(t *testing.T) {
	dao := NewMockTranscriptionDAO()

	for _, tr := range TestTranscriptions {
		tr := tr
		_, err := dao.Record(&tr)
		require.NoError(t, err)
	}

	id, err := dao.CheckIfFileProcessed("podcast_episode_001.mp4")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	id, err = dao.CheckIfFileProcessed("corrupted.mp4")
	require.NoError(t, err)
	assert.Zero(t, id)

	list, err := dao.List(1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "corrupted.mp4", list[0].FileName)

	dao.ErrorMap["Record"] = errors.New("db down")
	_, err = dao.Record(&model.Transcription{})
	assert.Error(t, err)

	require.NoError(t, dao.Close())
	assert.True(t, dao.Closed())
}
