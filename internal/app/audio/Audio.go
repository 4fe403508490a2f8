package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"mp4text/internal/app/logger"
	model2 "mp4text/internal/app/model"
	"mp4text/internal/config"
)

// WhisperSampleRate is the sample rate whisper models expect.
const WhisperSampleRate = 16000

// Extractor pulls audio tracks out of video containers.
type Extractor interface {
	// ExtractAudio writes the whole audio track of videoPath to outPath.
	ExtractAudio(ctx context.Context, videoPath, outPath string) error
	// ExtractSegment writes the [start, end) range of the audio track.
	ExtractSegment(ctx context.Context, videoPath, outPath string, start, end time.Duration) error
	// Duration returns the media duration of path.
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FFmpeg implements Extractor with the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	SampleRate  int
	logger      *zap.Logger
}

// NewFFmpegFromSettings returns an FFmpeg using the configured binaries.
func NewFFmpegFromSettings(s config.AudioSettings, log *zap.Logger) *FFmpeg {
	f := NewFFmpeg(s.SampleRate, log)
	if s.FFmpegPath != "" {
		f.FFmpegPath = s.FFmpegPath
	}
	if s.FFprobePath != "" {
		f.FFprobePath = s.FFprobePath
	}
	return f
}

// NewFFmpeg returns an FFmpeg using binaries from PATH.
func NewFFmpeg(sampleRate int, log *zap.Logger) *FFmpeg {
	if sampleRate <= 0 {
		sampleRate = WhisperSampleRate
	}
	return &FFmpeg{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		SampleRate:  sampleRate,
		logger:      logger.OrNop(log).Named("ffmpeg"),
	}
}

// ExtractAudio implements Extractor.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	return f.run(ctx, BuildExtractArgs(videoPath, outPath, 0, 0, f.SampleRate))
}

// ExtractSegment implements Extractor.
func (f *FFmpeg) ExtractSegment(ctx context.Context, videoPath, outPath string, start, end time.Duration) error {
	if end <= start {
		return fmt.Errorf("invalid segment range %s-%s", start, end)
	}
	return f.run(ctx, BuildExtractArgs(videoPath, outPath, start, end, f.SampleRate))
}

// Duration implements Extractor.
func (f *FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	info, err := f.inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	return MediaDuration(info)
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.FFmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Debug("running ffmpeg", zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("FFmpeg error: %v, stderr: %s", err, lastLines(stderr.String(), 5))
	}
	return nil
}

func (f *FFmpeg) inspect(ctx context.Context, path string) (*model2.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, f.FFprobePath, "-v", "quiet", "-print_format", "json", "-show_streams", "-show_format", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}
	return ParseMediaInfo(output)
}

// BuildExtractArgs builds ffmpeg arguments producing mono 16-bit PCM WAV at
// sampleRate. A zero end extracts to the end of the input.
func BuildExtractArgs(videoPath, outPath string, start, end time.Duration, sampleRate int) []string {
	args := []string{"-y", "-loglevel", "error"}
	if start > 0 {
		args = append(args, "-ss", formatSeconds(start))
	}
	if end > 0 {
		args = append(args, "-to", formatSeconds(end))
	}
	args = append(args,
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		outPath,
	)
	return args
}

// ParseMediaInfo decodes ffprobe JSON output.
func ParseMediaInfo(data []byte) (*model2.MediaInfo, error) {
	var mediaInfo model2.MediaInfo
	if err := json.Unmarshal(data, &mediaInfo); err != nil {
		return nil, fmt.Errorf("invalid ffprobe output: %w", err)
	}
	return &mediaInfo, nil
}

// MediaDuration extracts the container duration from ffprobe output.
func MediaDuration(info *model2.MediaInfo) (time.Duration, error) {
	raw := strings.TrimSpace(info.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, fmt.Errorf("duration not reported")
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// IsWhisperReady reports whether info describes 16kHz 16-bit PCM audio.
func IsWhisperReady(info *model2.MediaInfo) bool {
	for _, stream := range info.Streams {
		if stream.CodecType == "audio" && stream.CodecName == "pcm_s16le" && stream.SampleRate == WhisperSampleRate {
			return true
		}
	}
	return false
}

// IsWhisperReadyFile inspects path and reports whether it is already in the
// format whisper.cpp reads.
func (f *FFmpeg) IsWhisperReadyFile(ctx context.Context, path string) (bool, error) {
	info, err := f.inspect(ctx, path)
	if err != nil {
		return false, err
	}
	return IsWhisperReady(info), nil
}

// ConvertToWhisperWav converts inputPath into a uniquely named 16kHz WAV
// inside outDir and returns its path. A failed or cancelled conversion
// leaves nothing behind.
func (f *FFmpeg) ConvertToWhisperWav(ctx context.Context, inputPath, outDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outPath := filepath.Join(outDir, fmt.Sprintf("%s_%s_16khz.wav", base, uuid.NewString()[:8]))

	if err := f.run(ctx, BuildExtractArgs(inputPath, outPath, 0, 0, WhisperSampleRate)); err != nil {
		os.Remove(outPath)
		return "", err
	}
	return outPath, nil
}

// PrepareWhisperWav returns a whisper-ready version of audioPath. When a
// conversion is needed the result lives in workDir and belongs to the
// caller; otherwise audioPath itself is returned.
func (f *FFmpeg) PrepareWhisperWav(ctx context.Context, audioPath, workDir string) (string, error) {
	ready, err := f.IsWhisperReadyFile(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("error checking input file: %w", err)
	}
	if ready {
		return audioPath, nil
	}
	converted, err := f.ConvertToWhisperWav(ctx, audioPath, workDir)
	if err != nil {
		return "", fmt.Errorf("error converting input file: %w", err)
	}
	return converted, nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
