package whisper_cpp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"mp4text/internal/app/api"
	"mp4text/internal/app/audio"
	apperrors "mp4text/internal/app/errors"
	"mp4text/internal/app/logger"
)

// Progress window reserved for the whisper.cpp run itself.
const (
	progressRunStart = 10
	progressRunEnd   = 90
)

var progressLine = regexp.MustCompile(`progress\s*=\s*(\d+)%`)

// Config configures a WhisperCppTranscriber.
type Config struct {
	BinaryPath string
	// ModelPath wins over ModelDir when both are set.
	ModelPath string
	ModelDir  string
	Language  string
	Prompt    string
	Threads   int
	TempDir   string
	Timeout   time.Duration
}

// PrepareFunc turns an arbitrary audio file into one whisper.cpp can read.
// Converted files must be created inside workDir; they are removed after
// the run. Returning audioPath means no conversion took place.
type PrepareFunc func(ctx context.Context, audioPath, workDir string) (string, error)

// loadedModel is what the engine keeps in its model slot.
type loadedModel struct {
	binary    string
	modelPath string
	modelSize int64
	workDir   string
}

// WhisperCppTranscriber runs the whisper.cpp command line tool.
type WhisperCppTranscriber struct {
	api.Base
	config  Config
	prepare PrepareFunc
	logger  *zap.Logger
}

// New creates an unloaded whisper.cpp engine for modelName.
func New(modelName string, config Config, log *zap.Logger) *WhisperCppTranscriber {
	if config.BinaryPath == "" {
		config.BinaryPath = "whisper-cli"
	}
	return &WhisperCppTranscriber{
		Base:    api.NewBase(modelName),
		config:  config,
		prepare: audio.NewFFmpeg(audio.WhisperSampleRate, log).PrepareWhisperWav,
		logger:  logger.OrNop(log),
	}
}

// SetPrepareFunc replaces the audio preparation step.
func (w *WhisperCppTranscriber) SetPrepareFunc(fn PrepareFunc) {
	w.prepare = fn
}

// ResolveModelPath returns the model file this engine will load.
func (w *WhisperCppTranscriber) ResolveModelPath() string {
	if w.config.ModelPath != "" {
		return w.config.ModelPath
	}
	return filepath.Join(w.config.ModelDir, "ggml-"+w.ModelName()+".bin")
}

// LoadModel locates the binary and the model file.
func (w *WhisperCppTranscriber) LoadModel(ctx context.Context, cb api.Callbacks) error {
	if w.IsModelLoaded() {
		cb.ReportProgress(100)
		return nil
	}

	cb.ReportStatus(fmt.Sprintf("loading whisper.cpp model: %s", w.ModelName()))
	cb.ReportProgress(20)

	binary, err := exec.LookPath(w.config.BinaryPath)
	if err != nil {
		unavailable := apperrors.Wrapf(apperrors.ErrEngineUnavailable, "whisper.cpp binary %q not found: %v", w.config.BinaryPath, err)
		return apperrors.Wrap(unavailable, apperrors.ErrModelLoadFailed.Error())
	}

	modelPath := w.ResolveModelPath()
	info, err := os.Stat(modelPath)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrModelLoadFailed, "model file %s: %v", modelPath, err)
	}
	if info.Size() == 0 {
		return apperrors.Wrapf(apperrors.ErrModelLoadFailed, "model file %s is empty", modelPath)
	}
	cb.ReportProgress(60)

	if err := ctx.Err(); err != nil {
		return err
	}

	workDir, err := os.MkdirTemp(w.config.TempDir, "whisper_cpp_")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrModelLoadFailed, fmt.Sprintf("failed to create work directory: %v", err))
	}

	w.SetModel(&loadedModel{
		binary:    binary,
		modelPath: modelPath,
		modelSize: info.Size(),
		workDir:   workDir,
	})

	w.logger.Info("whisper.cpp model loaded",
		zap.String("model", w.ModelName()),
		zap.String("binary", binary),
		zap.String("model_path", modelPath))

	cb.ReportProgress(100)
	cb.ReportStatus(fmt.Sprintf("whisper.cpp model %s loaded", w.ModelName()))
	return nil
}

// TranscribeAudio runs whisper.cpp on audioPath.
func (w *WhisperCppTranscriber) TranscribeAudio(ctx context.Context, audioPath string, cb api.Callbacks, opts api.Options) (*api.Result, error) {
	m, ok := w.Model().(*loadedModel)
	if !ok || m == nil {
		return nil, apperrors.ErrModelNotLoaded
	}

	if valid, msg := w.ValidateAudioFile(audioPath); !valid {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAudio, msg)
	}

	opts = w.mergeOptions(opts)
	start := time.Now()

	cb.ReportStatus("preparing audio")
	cb.ReportProgress(0)
	input, err := w.prepare(ctx, audioPath, m.workDir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.Wrap(apperrors.ErrTranscriptionFailed, err.Error())
	}
	if input != audioPath {
		defer os.Remove(input)
	}
	cb.ReportProgress(progressRunStart)

	if w.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()
	}

	outBase := filepath.Join(m.workDir, uuid.NewString())
	defer os.Remove(outBase + ".json")

	args := BuildArgs(m.modelPath, input, outBase, opts)
	w.logger.Debug("running whisper.cpp", zap.String("binary", m.binary), zap.Strings("args", args))

	cb.ReportStatus("transcribing")
	if err := w.run(ctx, m.binary, args, cb.Scaled(progressRunStart, progressRunEnd)); err != nil {
		return nil, err
	}
	cb.ReportProgress(progressRunEnd)

	data, err := os.ReadFile(outBase + ".json")
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrTranscriptionFailed, "failed to read output file: %v", err)
	}

	result, err := ParseOutput(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTranscriptionFailed, err.Error())
	}
	result.Engine = api.EngineName(w)
	result.Model = w.ModelName()
	if result.Language == "" && !opts.AutoLanguage() {
		result.Language = opts.Language
	}

	w.logger.Info("transcription finished",
		zap.String("file", filepath.Base(audioPath)),
		zap.Int("segments", len(result.Segments)),
		zap.Duration("elapsed", time.Since(start)))

	cb.ReportProgress(100)
	cb.ReportStatus("transcription complete")
	return result, nil
}

func (w *WhisperCppTranscriber) run(ctx context.Context, binary string, args []string, cb api.Callbacks) error {
	cmd := exec.CommandContext(ctx, binary, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTranscriptionFailed, err.Error())
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Start(); err != nil {
		return apperrors.Wrapf(apperrors.ErrTranscriptionFailed, "command start error: %v", err)
	}

	tail := scanProgress(stderr, cb)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.Wrapf(apperrors.ErrTranscriptionFailed, "command execution error: %v, stderr: %s", err, strings.Join(tail, "\n"))
	}
	return nil
}

// scanProgress forwards progress lines to cb and returns the last few
// lines for error reporting.
func scanProgress(r io.Reader, cb api.Callbacks) []string {
	const keep = 5
	var tail []string
	last := -1

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if p, ok := ParseProgress(line); ok {
			if p > last {
				last = p
				cb.ReportProgress(p)
			}
			continue
		}
		tail = append(tail, line)
		if len(tail) > keep {
			tail = tail[1:]
		}
	}
	return tail
}

// ParseProgress extracts the percentage from a whisper.cpp progress line.
func ParseProgress(line string) (int, bool) {
	m := progressLine.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	p, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return p, true
}

// BuildArgs assembles the whisper.cpp command line. outBase receives the
// JSON output as outBase + ".json".
func BuildArgs(modelPath, input, outBase string, opts api.Options) []string {
	language := opts.Language
	if opts.AutoLanguage() {
		language = api.LanguageAuto
	}

	args := []string{
		"-m", modelPath,
		"-l", language,
		"-bs", strconv.Itoa(opts.BeamSize),
		"-tp", strconv.FormatFloat(float64(opts.Temperature), 'f', 2, 32),
		"-t", strconv.Itoa(opts.Threads),
	}
	if opts.Prompt != "" {
		args = append(args, "--prompt", opts.Prompt)
	}
	if opts.WordTimestamps {
		args = append(args, "-ml", "1")
	}
	args = append(args,
		"-oj",
		"-of", outBase,
		"--print-progress",
		"-f", input,
	)
	return args
}

func (w *WhisperCppTranscriber) mergeOptions(opts api.Options) api.Options {
	if opts.AutoLanguage() && w.config.Language != "" {
		opts.Language = w.config.Language
	}
	if opts.Prompt == "" {
		opts.Prompt = w.config.Prompt
	}
	if opts.Threads <= 0 {
		opts.Threads = w.config.Threads
	}
	if opts.Threads <= 0 {
		opts.Threads = min(runtime.NumCPU(), 8)
	}
	return opts.WithDefaults()
}

type jsonOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// ParseOutput decodes the file written by whisper.cpp's -oj flag.
func ParseOutput(data []byte) (*api.Result, error) {
	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid whisper.cpp output: %w", err)
	}

	result := &api.Result{Language: out.Result.Language}
	texts := make([]string, 0, len(out.Transcription))
	for _, seg := range out.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		s := api.Segment{
			Start: time.Duration(seg.Offsets.From) * time.Millisecond,
			End:   time.Duration(seg.Offsets.To) * time.Millisecond,
			Text:  text,
		}
		result.Segments = append(result.Segments, s)
		texts = append(texts, text)
		if s.End > result.Duration {
			result.Duration = s.End
		}
	}
	result.Text = strings.Join(texts, "\n")
	return result, nil
}

// ModelInfo describes the engine.
func (w *WhisperCppTranscriber) ModelInfo() api.ModelInfo {
	loaded := w.IsModelLoaded()
	info := api.ModelInfo{
		api.InfoName:        w.ModelName(),
		api.InfoEngine:      api.EngineName(w),
		api.InfoLoaded:      loaded,
		api.InfoStatus:      api.StatusText(loaded),
		api.InfoDescription: "whisper.cpp command line (local)",
		"binary_path":       w.config.BinaryPath,
		"model_path":        w.ResolveModelPath(),
		"language":          w.config.Language,
		"threads":           w.config.Threads,
		"supported_formats": []string{"wav", "mp3", "flac", "ogg", "m4a"},
	}
	if m, ok := w.Model().(*loadedModel); ok && m != nil {
		info["binary_path"] = m.binary
		info["model_size"] = humanize.IBytes(uint64(m.modelSize))
	}
	return info
}

// Cleanup releases the model and removes the engine's work directory.
func (w *WhisperCppTranscriber) Cleanup() error {
	m, ok := w.ReleaseModel().(*loadedModel)
	if !ok || m == nil {
		return nil
	}
	w.logger.Debug("whisper.cpp model released", zap.String("model", w.ModelName()))
	if err := os.RemoveAll(m.workDir); err != nil {
		return fmt.Errorf("failed to remove work directory: %w", err)
	}
	return nil
}
