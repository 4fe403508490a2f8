package whisper_cpp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mp4text/internal/app/api"
	apperrors "mp4text/internal/app/errors"
	"mp4text/internal/config"
)

const sampleOutput = `{
  "result": {"language": "en"},
  "transcription": [
    {"offsets": {"from": 0, "to": 2000}, "text": " Hello world."},
    {"offsets": {"from": 2000, "to": 2500}, "text": "   "},
    {"offsets": {"from": 2500, "to": 5120}, "text": " Second line."}
  ]
}`

// fakeWhisperScript writes sampleOutput to the -of target and prints
// progress lines like whisper.cpp does.
const fakeWhisperScript = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -of) out="$2"; shift ;;
  esac
  shift
done
echo "whisper_print_progress_callback: progress =  25%" >&2
echo "whisper_print_progress_callback: progress =  50%" >&2
echo "whisper_print_progress_callback: progress = 100%" >&2
cat > "$out.json" <<'JSON'
` + sampleOutput + `
JSON
`

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
}

// createMockBinary creates an executable shell script in a temp directory.
func createMockBinary(t *testing.T, scriptContent string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mock_whisper.sh")
	require.NoError(t, os.WriteFile(path, []byte(scriptContent), 0755))
	return path
}

func createModelFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ggml-base.bin")
	require.NoError(t, os.WriteFile(path, []byte("model-bytes"), 0644))
	return path
}

func createTestAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_audio.wav")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0644))
	return path
}

func identityPrepare(_ context.Context, path, _ string) (string, error) {
	return path, nil
}

func newTestTranscriber(t *testing.T, script string) *WhisperCppTranscriber {
	t.Helper()
	w := New("base", Config{
		BinaryPath: createMockBinary(t, script),
		ModelPath:  createModelFile(t),
		TempDir:    t.TempDir(),
		Threads:    2,
	}, nil)
	w.SetPrepareFunc(identityPrepare)
	return w
}

func TestNewIsUnloaded(t *testing.T) {
	w := New("small", Config{ModelDir: "/models"}, nil)

	assert.False(t, w.IsModelLoaded())
	assert.Equal(t, "small", w.ModelName())
	assert.Equal(t, "WhisperCpp", api.EngineName(w))
	assert.Equal(t, filepath.Join("/models", "ggml-small.bin"), w.ResolveModelPath())
	assert.NoError(t, w.Cleanup())
	assert.NoError(t, w.Cleanup())
}

func TestLoadModelAndCleanup(t *testing.T) {
	skipOnWindows(t)
	w := newTestTranscriber(t, fakeWhisperScript)

	var progress []int
	var status []string
	cb := api.Callbacks{
		Progress: func(p int) { progress = append(progress, p) },
		Status:   func(s string) { status = append(status, s) },
	}

	require.NoError(t, w.LoadModel(context.Background(), cb))
	assert.True(t, w.IsModelLoaded())
	assert.Equal(t, []int{20, 60, 100}, progress)
	assert.Equal(t, "loading whisper.cpp model: base", status[0])
	assert.Equal(t, "whisper.cpp model base loaded", status[len(status)-1])

	m := w.Model().(*loadedModel)
	assert.DirExists(t, m.workDir)

	require.NoError(t, w.Cleanup())
	assert.False(t, w.IsModelLoaded())
	assert.NoDirExists(t, m.workDir)
}

func TestLoadModelFailures(t *testing.T) {
	skipOnWindows(t)

	emptyModel := filepath.Join(t.TempDir(), "ggml-empty.bin")
	require.NoError(t, os.WriteFile(emptyModel, nil, 0644))

	tests := []struct {
		name   string
		config Config
		errMsg string
	}{
		{
			name:   "binary not found",
			config: Config{BinaryPath: "/nonexistent/whisper-cli", ModelPath: createModelFile(t)},
			errMsg: "engine unavailable",
		},
		{
			name:   "model missing",
			config: Config{BinaryPath: createMockBinary(t, fakeWhisperScript), ModelDir: t.TempDir()},
			errMsg: "ggml-base.bin",
		},
		{
			name:   "model empty",
			config: Config{BinaryPath: createMockBinary(t, fakeWhisperScript), ModelPath: emptyModel},
			errMsg: "is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New("base", tt.config, nil)
			err := w.LoadModel(context.Background(), api.Callbacks{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrModelLoadFailed))
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.False(t, w.IsModelLoaded())
		})
	}
}

func TestTranscribeAudioRequiresLoadedModel(t *testing.T) {
	w := New("base", Config{}, nil)
	_, err := w.TranscribeAudio(context.Background(), "x.wav", api.Callbacks{}, api.DefaultOptions())
	assert.ErrorIs(t, err, apperrors.ErrModelNotLoaded)
}

func TestTranscribeAudio(t *testing.T) {
	skipOnWindows(t)
	w := newTestTranscriber(t, fakeWhisperScript)
	require.NoError(t, w.LoadModel(context.Background(), api.Callbacks{}))
	defer w.Cleanup()

	var progress []int
	cb := api.Callbacks{Progress: func(p int) { progress = append(progress, p) }}

	result, err := w.TranscribeAudio(context.Background(), createTestAudioFile(t), cb, api.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "Hello world.\nSecond line.", result.Text)
	assert.Equal(t, "en", result.Language)
	assert.Equal(t, "WhisperCpp", result.Engine)
	assert.Equal(t, "base", result.Model)
	require.Len(t, result.Segments, 2)
	assert.Equal(t, 2500*time.Millisecond, result.Segments[1].Start)
	assert.Equal(t, 5120*time.Millisecond, result.Duration)

	assert.Equal(t, []int{0, 10, 30, 50, 90, 90, 100}, progress)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}

	entries, err := os.ReadDir(w.Model().(*loadedModel).workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "output json should be removed")
}

func TestTranscribeAudioValidation(t *testing.T) {
	skipOnWindows(t)
	w := newTestTranscriber(t, fakeWhisperScript)
	require.NoError(t, w.LoadModel(context.Background(), api.Callbacks{}))
	defer w.Cleanup()

	small := filepath.Join(t.TempDir(), "tiny.wav")
	require.NoError(t, os.WriteFile(small, make([]byte, 10), 0644))

	_, err := w.TranscribeAudio(context.Background(), small, api.Callbacks{}, api.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAudio))
	assert.Contains(t, err.Error(), "audio file too small (10 bytes)")
}

func TestTranscribeAudioCommandFailure(t *testing.T) {
	skipOnWindows(t)
	script := "#!/bin/sh\necho 'error: failed to read WAV file' >&2\nexit 3\n"
	w := newTestTranscriber(t, script)
	require.NoError(t, w.LoadModel(context.Background(), api.Callbacks{}))
	defer w.Cleanup()

	_, err := w.TranscribeAudio(context.Background(), createTestAudioFile(t), api.Callbacks{}, api.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTranscriptionFailed))
	assert.Contains(t, err.Error(), "failed to read WAV file")
}

func TestTranscribeAudioPrepareFailure(t *testing.T) {
	skipOnWindows(t)
	w := newTestTranscriber(t, fakeWhisperScript)
	w.SetPrepareFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("ffmpeg missing")
	})
	require.NoError(t, w.LoadModel(context.Background(), api.Callbacks{}))
	defer w.Cleanup()

	_, err := w.TranscribeAudio(context.Background(), createTestAudioFile(t), api.Callbacks{}, api.Options{})
	assert.ErrorContains(t, err, "ffmpeg missing")
}

func TestTranscribeAudioRemovesConvertedInput(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name    string
		script  string
		wantErr bool
	}{
		{"success", fakeWhisperScript, false},
		{"command failure", "#!/bin/sh\nexit 1\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestTranscriber(t, tt.script)
			var converted string
			w.SetPrepareFunc(func(_ context.Context, path, workDir string) (string, error) {
				converted = filepath.Join(workDir, "converted_16khz.wav")
				return converted, os.WriteFile(converted, make([]byte, 2048), 0644)
			})
			require.NoError(t, w.LoadModel(context.Background(), api.Callbacks{}))
			defer w.Cleanup()

			input := createTestAudioFile(t)
			_, err := w.TranscribeAudio(context.Background(), input, api.Callbacks{}, api.Options{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoFileExists(t, converted)
			assert.FileExists(t, input)
			entries, err := os.ReadDir(w.Model().(*loadedModel).workDir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestCreateWhisperCppTranscriberUsesConfiguredFFmpeg(t *testing.T) {
	skipOnWindows(t)
	s := *config.DefaultSettings()
	s.WhisperCpp.BinaryPath = createMockBinary(t, fakeWhisperScript)
	s.WhisperCpp.ModelPath = createModelFile(t)
	s.Audio.FFprobePath = filepath.Join(t.TempDir(), "no-such-ffprobe")

	tr, err := createWhisperCppTranscriber(s, nil)
	require.NoError(t, err)
	require.NoError(t, tr.LoadModel(context.Background(), api.Callbacks{}))
	defer tr.Cleanup()

	_, err = tr.TranscribeAudio(context.Background(), createTestAudioFile(t), api.Callbacks{}, api.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-ffprobe")
}

func TestTranscribeAudioCancelled(t *testing.T) {
	skipOnWindows(t)
	w := newTestTranscriber(t, "#!/bin/sh\nexec sleep 10\n")
	require.NoError(t, w.LoadModel(context.Background(), api.Callbacks{}))
	defer w.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := w.TranscribeAudio(ctx, createTestAudioFile(t), api.Callbacks{}, api.Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBuildArgs(t *testing.T) {
	opts := api.Options{Language: "zh", BeamSize: 5, Temperature: 0.2, Prompt: "以下是简体中文普通话:", Threads: 4}
	args := BuildArgs("/m/ggml-base.bin", "/a/in.wav", "/w/out", opts)

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-m /m/ggml-base.bin")
	assert.Contains(t, joined, "-l zh")
	assert.Contains(t, joined, "-bs 5")
	assert.Contains(t, joined, "-tp 0.20")
	assert.Contains(t, joined, "-t 4")
	assert.Contains(t, joined, "--prompt 以下是简体中文普通话:")
	assert.Contains(t, joined, "-oj -of /w/out --print-progress")
	assert.Equal(t, []string{"-f", "/a/in.wav"}, args[len(args)-2:])
	assert.NotContains(t, args, "-ml")

	auto := BuildArgs("m", "in", "out", api.Options{BeamSize: 3, WordTimestamps: true})
	assert.Contains(t, strings.Join(auto, " "), "-l auto")
	assert.Contains(t, auto, "-ml")
	assert.NotContains(t, auto, "--prompt")
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		line string
		want int
		ok   bool
	}{
		{"whisper_print_progress_callback: progress =  10%", 10, true},
		{"progress = 100%", 100, true},
		{"whisper_init_from_file: loading model", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseProgress(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestParseOutputInvalid(t *testing.T) {
	_, err := ParseOutput([]byte("{"))
	assert.ErrorContains(t, err, "invalid whisper.cpp output")
}

func TestModelInfo(t *testing.T) {
	skipOnWindows(t)
	w := newTestTranscriber(t, fakeWhisperScript)

	info := w.ModelInfo()
	assert.Equal(t, "base", info[api.InfoName])
	assert.Equal(t, "WhisperCpp", info[api.InfoEngine])
	assert.Equal(t, false, info[api.InfoLoaded])
	assert.Equal(t, "not loaded", info[api.InfoStatus])
	assert.NotContains(t, info, "model_size")

	require.NoError(t, w.LoadModel(context.Background(), api.Callbacks{}))
	defer w.Cleanup()

	info = w.ModelInfo()
	assert.Equal(t, true, info[api.InfoLoaded])
	assert.Equal(t, "loaded", info[api.InfoStatus])
	assert.Equal(t, "11 B", info["model_size"])
}

func TestConfigFromSettings(t *testing.T) {
	s := *config.DefaultSettings()
	s.Transcription.Prompt = "hint"
	s.WhisperCpp.ModelPath = "/opt/ggml.bin"

	cfg := ConfigFromSettings(s)
	assert.Equal(t, "whisper-cli", cfg.BinaryPath)
	assert.Equal(t, "/opt/ggml.bin", cfg.ModelPath)
	assert.Empty(t, cfg.Language, "auto maps to engine detection")
	assert.Equal(t, "hint", cfg.Prompt)
	assert.Equal(t, config.DefaultWhisperCppTimeout, cfg.Timeout)
}
