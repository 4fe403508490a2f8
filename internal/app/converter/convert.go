package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"mp4text/internal/app/api"
	"mp4text/internal/app/audio"
	apperrors "mp4text/internal/app/errors"
	"mp4text/internal/app/logger"
	"mp4text/internal/app/model"
	"mp4text/internal/app/repository"
	"mp4text/internal/app/util/files"
	"mp4text/internal/config"
)

const bytesPerGB = 1024 * 1024 * 1024

// Progress checkpoints of a single conversion.
const (
	progressLoaded    = 10
	progressExtracted = 15
	progressSaved     = 95
)

// Options controls a Converter.
type Options struct {
	OutputDir        string
	AutoSave         bool
	SaveAudio        bool
	AutoSegment      bool
	MaxSegmentSizeGB float64
	SampleRate       int
	TempPrefix       string
	Transcription    api.Options
}

// OptionsFromSettings derives converter options from settings.
func OptionsFromSettings(s *config.Settings) Options {
	return Options{
		OutputDir:        s.Output.Directory,
		AutoSave:         s.Output.AutoSave,
		SaveAudio:        s.Audio.SaveAudio,
		AutoSegment:      s.Audio.AutoSegment,
		MaxSegmentSizeGB: s.Audio.MaxSegmentSizeGB,
		SampleRate:       s.Audio.SampleRate,
		TempPrefix:       config.DefaultTempPrefix,
		Transcription:    s.Transcription.Options(),
	}
}

// Outcome describes one converted video.
type Outcome struct {
	VideoPath       string
	Text            string
	OutputPath      string
	AudioPaths      []string
	Duration        time.Duration
	Segments        int
	SkippedSegments int
	Engine          string
	Model           string
}

type Converter struct {
	transcriber api.Transcriber
	extractor   audio.Extractor
	db          repository.TranscriptionDAO
	opts        Options
	logger      *zap.Logger
	now         func() time.Time
}

// NewConverter wires a converter. db may be nil to disable history.
func NewConverter(transcriber api.Transcriber, extractor audio.Extractor, transcriptionDAO repository.TranscriptionDAO, opts Options, log *zap.Logger) *Converter {
	if opts.TempPrefix == "" {
		opts.TempPrefix = config.DefaultTempPrefix
	}
	if opts.MaxSegmentSizeGB <= 0 {
		opts.MaxSegmentSizeGB = config.DefaultMaxSegmentSizeGB
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = audio.WhisperSampleRate
	}
	return &Converter{
		transcriber: transcriber,
		extractor:   extractor,
		db:          transcriptionDAO,
		opts:        opts,
		logger:      logger.OrNop(log),
		now:         time.Now,
	}
}

// Transcriber returns the engine in use.
func (c *Converter) Transcriber() api.Transcriber {
	return c.transcriber
}

// Close releases the engine and the history store.
func (c *Converter) Close() error {
	var errs []error
	if c.transcriber != nil {
		errs = append(errs, c.transcriber.Cleanup())
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}

// ConvertFile turns one video into text.
func (c *Converter) ConvertFile(ctx context.Context, videoPath string, cb api.Callbacks) (*Outcome, error) {
	start := c.now()
	outcome, err := c.convert(ctx, videoPath, cb)

	log := c.logger.With(zap.String("file", filepath.Base(videoPath)))
	switch {
	case err == nil:
		log.Info("conversion finished",
			zap.Int("segments", outcome.Segments),
			zap.Int("skipped", outcome.SkippedSegments),
			zap.String("output", outcome.OutputPath),
			zap.Duration("elapsed", c.now().Sub(start)))
	case isCancellation(err):
		log.Warn("conversion cancelled")
	default:
		log.Error("conversion failed", zap.Error(err))
	}

	if errors.Is(err, apperrors.ErrInvalidVideo) || isCancellation(err) {
		return nil, err
	}
	c.record(videoPath, outcome, err)
	return outcome, err
}

// isCancellation reports whether err stems from the caller's context.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Converter) convert(ctx context.Context, videoPath string, cb api.Callbacks) (*Outcome, error) {
	if valid, msg := files.ValidateVideoFile(videoPath); !valid {
		return nil, apperrors.Wrap(apperrors.ErrInvalidVideo, msg)
	}
	outcome := &Outcome{
		VideoPath: videoPath,
		Engine:    api.EngineName(c.transcriber),
		Model:     c.transcriber.ModelName(),
	}

	cb.ReportProgress(0)
	if !c.transcriber.IsModelLoaded() {
		if err := c.transcriber.LoadModel(ctx, cb.Scaled(0, progressLoaded)); err != nil {
			return outcome, err
		}
	}
	cb.ReportProgress(progressLoaded)

	tempDir, err := files.CreateTempDir(c.opts.TempPrefix)
	if err != nil {
		return outcome, err
	}
	defer files.CleanupTempDir(tempDir)

	cb.ReportStatus("reading media duration")
	duration, err := c.extractor.Duration(ctx, videoPath)
	if err != nil || duration <= 0 {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		return outcome, apperrors.Wrapf(apperrors.ErrDurationUnknown, "%s: %v", filepath.Base(videoPath), err)
	}
	outcome.Duration = duration

	info, err := os.Stat(videoPath)
	if err != nil {
		return outcome, apperrors.Wrap(apperrors.ErrFileNotFound, err.Error())
	}

	spans := PlanSegments(info.Size(), duration, c.opts.MaxSegmentSizeGB, c.opts.AutoSegment)
	status := fmt.Sprintf("file is %.1fGB, processing in %d segments", float64(info.Size())/bytesPerGB, len(spans))
	if limiter, ok := c.transcriber.(api.AudioSizeLimiter); ok && c.opts.AutoSegment {
		if n := AudioSegmentCount(duration, c.opts.SampleRate, limiter.MaxAudioSize()); n > len(spans) {
			spans = SplitSpans(duration, n)
			status = fmt.Sprintf("audio exceeds the %s upload limit, processing in %d segments", humanize.IBytes(uint64(limiter.MaxAudioSize())), n)
		}
	}
	outcome.Segments = len(spans)

	var text string
	var audioPaths []string
	if len(spans) == 1 {
		text, audioPaths, err = c.convertWhole(ctx, videoPath, tempDir, cb)
	} else {
		cb.ReportStatus(status)
		text, audioPaths, outcome.SkippedSegments, err = c.convertSegments(ctx, videoPath, tempDir, spans, cb)
	}
	if err != nil {
		return outcome, err
	}
	outcome.Text = text

	stamp := c.now().Format("20060102_150405")
	if c.opts.AutoSave {
		name := files.SafeFilename(videoPath, "transcript_"+stamp) + ".txt"
		outcome.OutputPath = filepath.Join(c.opts.OutputDir, name)
		if err := files.WriteTextFile(outcome.OutputPath, text); err != nil {
			return outcome, apperrors.Wrap(apperrors.ErrFileWriteFailed, err.Error())
		}
		cb.ReportStatus("transcript saved to " + outcome.OutputPath)
	}
	if c.opts.SaveAudio {
		saved, err := c.saveAudio(videoPath, stamp, audioPaths)
		if err != nil {
			return outcome, err
		}
		outcome.AudioPaths = saved
	}
	cb.ReportProgress(progressSaved)

	cb.ReportProgress(100)
	cb.ReportStatus("conversion complete")
	return outcome, nil
}

func (c *Converter) convertWhole(ctx context.Context, videoPath, tempDir string, cb api.Callbacks) (string, []string, error) {
	audioPath := filepath.Join(tempDir, "audio.wav")

	cb.ReportStatus("extracting audio")
	if err := c.extractor.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", nil, apperrors.Wrap(apperrors.ErrAudioExtraction, err.Error())
	}
	cb.ReportProgress(progressExtracted)

	cb.ReportStatus("transcribing audio")
	result, err := c.transcriber.TranscribeAudio(ctx, audioPath, cb.Scaled(progressExtracted, progressSaved-5), c.opts.Transcription)
	if err != nil {
		return "", nil, err
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", nil, apperrors.ErrNoTextExtracted
	}
	return text, []string{audioPath}, nil
}

func (c *Converter) convertSegments(ctx context.Context, videoPath, tempDir string, spans []Span, cb api.Callbacks) (string, []string, int, error) {
	var parts []string
	var audioPaths []string
	skipped := 0
	total := len(spans)
	window := progressSaved - 5 - progressLoaded

	for _, span := range spans {
		if err := ctx.Err(); err != nil {
			return "", nil, skipped, err
		}

		from := progressLoaded + window*(span.Index-1)/total
		to := progressLoaded + window*span.Index/total
		segCb := cb.Scaled(from, to)
		segCb.ReportProgress(0)
		cb.ReportStatus(fmt.Sprintf("processing segment %d/%d (%s - %s)", span.Index, total, FormatTimestamp(span.Start), FormatTimestamp(span.End)))

		audioPath := filepath.Join(tempDir, fmt.Sprintf("segment_%d.wav", span.Index))
		if err := c.extractor.ExtractSegment(ctx, videoPath, audioPath, span.Start, span.End); err != nil {
			if ctx.Err() != nil {
				return "", nil, skipped, ctx.Err()
			}
			c.logger.Warn("segment extraction failed, skipping", zap.Int("segment", span.Index), zap.Error(err))
			skipped++
			continue
		}
		segCb.ReportProgress(20)

		result, err := c.transcriber.TranscribeAudio(ctx, audioPath, segCb.Scaled(20, 100), c.opts.Transcription)
		if err != nil {
			if ctx.Err() != nil {
				return "", nil, skipped, ctx.Err()
			}
			c.logger.Warn("segment transcription failed, skipping", zap.Int("segment", span.Index), zap.Error(err))
			skipped++
			continue
		}
		segCb.ReportProgress(100)

		text := strings.TrimSpace(result.Text)
		if text == "" {
			continue
		}
		parts = append(parts, span.Marker()+"\n"+text)
		audioPaths = append(audioPaths, audioPath)
	}

	if len(parts) == 0 {
		return "", nil, skipped, apperrors.ErrNoTextExtracted
	}
	return strings.Join(parts, "\n\n"), audioPaths, skipped, nil
}

func (c *Converter) saveAudio(videoPath, stamp string, audioPaths []string) ([]string, error) {
	saved := make([]string, 0, len(audioPaths))
	for i, src := range audioPaths {
		suffix := "audio_" + stamp
		if len(audioPaths) > 1 {
			suffix = fmt.Sprintf("audio_%s_part%d", stamp, i+1)
		}
		dst := filepath.Join(c.opts.OutputDir, files.SafeFilename(videoPath, suffix)+".wav")
		if err := files.CopyFile(src, dst); err != nil {
			return saved, apperrors.Wrap(apperrors.ErrFileWriteFailed, err.Error())
		}
		saved = append(saved, dst)
	}
	return saved, nil
}

func (c *Converter) record(videoPath string, outcome *Outcome, convErr error) {
	if c.db == nil {
		return
	}

	t := &model.Transcription{
		Engine:    api.EngineName(c.transcriber),
		Model:     c.transcriber.ModelName(),
		FileName:  filepath.Base(videoPath),
		FilePath:  videoPath,
		CreatedAt: c.now(),
	}
	if outcome != nil {
		t.AudioDuration = outcome.Duration.Seconds()
		t.Transcription = outcome.Text
		t.OutputPath = outcome.OutputPath
	}
	if convErr != nil {
		t.HasError = true
		t.ErrorMessage = convErr.Error()
	}

	if _, err := c.db.Record(t); err != nil {
		c.logger.Error("failed to record conversion", zap.String("file", t.FileName), zap.Error(err))
	}
}
