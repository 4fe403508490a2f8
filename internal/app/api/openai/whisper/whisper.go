package whisper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"mp4text/internal/app/api"
	openaiclient "mp4text/internal/app/api/openai"
	apperrors "mp4text/internal/app/errors"
	"mp4text/internal/app/logger"
)

// MaxUploadSize is the largest file the transcription endpoint accepts.
const MaxUploadSize = 25 * 1024 * 1024

// Config configures an OpenAIWhisperTranscriber.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// OpenAIWhisperTranscriber transcribes through the OpenAI audio API.
// The loaded "model" is the API client.
type OpenAIWhisperTranscriber struct {
	api.Base
	config Config
	logger *zap.Logger
}

// New creates an unloaded OpenAI engine for modelName, e.g. "whisper-1".
func New(modelName string, config Config, log *zap.Logger) *OpenAIWhisperTranscriber {
	if modelName == "" {
		modelName = openai.Whisper1
	}
	return &OpenAIWhisperTranscriber{
		Base:   api.NewBase(modelName),
		config: config,
		logger: logger.OrNop(log),
	}
}

// LoadModel creates the API client.
func (o *OpenAIWhisperTranscriber) LoadModel(ctx context.Context, cb api.Callbacks) error {
	if o.IsModelLoaded() {
		cb.ReportProgress(100)
		return nil
	}

	cb.ReportStatus(fmt.Sprintf("connecting to OpenAI (%s)", o.ModelName()))
	cb.ReportProgress(20)

	if strings.TrimSpace(o.config.APIKey) == "" {
		return apperrors.Wrap(apperrors.ErrModelLoadFailed, apperrors.ErrMissingAPIKey.Error())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	o.SetModel(openaiclient.NewClient(o.config.APIKey, o.config.BaseURL, o.config.Timeout))
	o.logger.Info("openai client ready", zap.String("model", o.ModelName()))

	cb.ReportProgress(100)
	cb.ReportStatus(fmt.Sprintf("OpenAI model %s ready", o.ModelName()))
	return nil
}

// TranscribeAudio uploads audioPath and returns the verbose transcript.
func (o *OpenAIWhisperTranscriber) TranscribeAudio(ctx context.Context, audioPath string, cb api.Callbacks, opts api.Options) (*api.Result, error) {
	client, ok := o.Model().(*openai.Client)
	if !ok || client == nil {
		return nil, apperrors.ErrModelNotLoaded
	}

	if valid, msg := o.ValidateAudioFile(audioPath); !valid {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAudio, msg)
	}
	if info, err := os.Stat(audioPath); err == nil && info.Size() > MaxUploadSize {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidAudio, "audio file too large for OpenAI API (%s, limit %s)",
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(MaxUploadSize))
	}

	opts = opts.WithDefaults()
	req := BuildRequest(o.ModelName(), audioPath, opts)

	cb.ReportStatus("uploading audio to OpenAI")
	cb.ReportProgress(10)

	start := time.Now()
	resp, err := client.CreateTranscription(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, handleAPIError(err)
	}
	cb.ReportProgress(90)

	result := ConvertResponse(resp)
	result.Engine = api.EngineName(o)
	result.Model = o.ModelName()

	o.logger.Info("transcription finished",
		zap.String("file", filepath.Base(audioPath)),
		zap.String("language", result.Language),
		zap.Duration("elapsed", time.Since(start)))

	cb.ReportProgress(100)
	cb.ReportStatus("transcription complete")
	return result, nil
}

// BuildRequest maps options onto an API request.
func BuildRequest(model, audioPath string, opts api.Options) openai.AudioRequest {
	req := openai.AudioRequest{
		Model:       model,
		FilePath:    audioPath,
		Prompt:      opts.Prompt,
		Temperature: opts.Temperature,
		Format:      openai.AudioResponseFormatVerboseJSON,
	}
	if !opts.AutoLanguage() {
		req.Language = opts.Language
	}
	if opts.WordTimestamps {
		req.TimestampGranularities = []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
			openai.TranscriptionTimestampGranularityWord,
		}
	}
	return req
}

// ConvertResponse turns an API response into a Result.
func ConvertResponse(resp openai.AudioResponse) *api.Result {
	result := &api.Result{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: seconds(resp.Duration),
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, api.Segment{
			Start: seconds(seg.Start),
			End:   seconds(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	for _, word := range resp.Words {
		result.Words = append(result.Words, api.Segment{
			Start: seconds(word.Start),
			End:   seconds(word.End),
			Text:  strings.TrimSpace(word.Word),
		})
	}
	return result
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func handleAPIError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return apperrors.Wrapf(apperrors.ErrTranscriptionFailed, "createTranscription failed: %v", err)
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusUnauthorized:
		return apperrors.Wrapf(apperrors.ErrTranscriptionFailed, "OpenAI API key is invalid or missing: %s", apiErr.Message)
	case http.StatusTooManyRequests:
		return apperrors.Wrapf(apperrors.ErrTranscriptionFailed, "OpenAI API rate limit exceeded: %s", apiErr.Message)
	case http.StatusRequestEntityTooLarge:
		return apperrors.Wrapf(apperrors.ErrTranscriptionFailed, "audio file is too large for OpenAI API (limit %d MB)", MaxUploadSize/1024/1024)
	case http.StatusBadRequest:
		return apperrors.Wrapf(apperrors.ErrTranscriptionFailed, "invalid audio file: %s", apiErr.Message)
	default:
		return apperrors.Wrapf(apperrors.ErrTranscriptionFailed, "OpenAI API error (%d): %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
}

// MaxAudioSize implements api.AudioSizeLimiter.
func (o *OpenAIWhisperTranscriber) MaxAudioSize() int64 {
	return MaxUploadSize
}

// ModelInfo describes the engine.
func (o *OpenAIWhisperTranscriber) ModelInfo() api.ModelInfo {
	loaded := o.IsModelLoaded()
	baseURL := o.config.BaseURL
	if baseURL == "" {
		baseURL = openai.DefaultConfig("").BaseURL
	}
	return api.ModelInfo{
		api.InfoName:        o.ModelName(),
		api.InfoEngine:      api.EngineName(o),
		api.InfoLoaded:      loaded,
		api.InfoStatus:      api.StatusText(loaded),
		api.InfoDescription: "OpenAI Whisper API (remote)",
		"base_url":          baseURL,
		"api_key_set":       o.config.APIKey != "",
		"max_upload_size":   MaxUploadSize,
		"requires_internet": true,
	}
}

// Cleanup drops the client.
func (o *OpenAIWhisperTranscriber) Cleanup() error {
	o.ReleaseModel()
	return nil
}
