package api

import (
	"context"
	"time"
)

// Transcriber defines the contract every speech-to-text engine satisfies.
// An engine is constructed unloaded, becomes usable after LoadModel succeeds
// and returns to the unloaded state after Cleanup.
type Transcriber interface {
	// LoadModel acquires the model resource. A nil error means the model is
	// loaded and IsModelLoaded reports true; on error it reports false.
	LoadModel(ctx context.Context, cb Callbacks) error

	// TranscribeAudio converts the audio file at audioPath to text.
	// Engines return ErrModelNotLoaded when called before LoadModel.
	TranscribeAudio(ctx context.Context, audioPath string, cb Callbacks, opts Options) (*Result, error)

	// ModelInfo describes the engine and its model. Keys are engine defined.
	ModelInfo() ModelInfo

	// Cleanup releases the model resource. Safe to call repeatedly.
	Cleanup() error

	IsModelLoaded() bool
	ModelName() string
}

// AudioSizeLimiter is implemented by engines that reject audio files larger
// than MaxAudioSize bytes.
type AudioSizeLimiter interface {
	MaxAudioSize() int64
}

// ProgressFunc receives progress in whole percent, 0 to 100.
type ProgressFunc func(percent int)

// StatusFunc receives human readable status messages.
type StatusFunc func(message string)

// Callbacks bundles the optional progress and status reporters.
// A nil field disables that kind of reporting.
type Callbacks struct {
	Progress ProgressFunc
	Status   StatusFunc
}

// ReportProgress forwards percent to the progress callback if one is set.
func (c Callbacks) ReportProgress(percent int) {
	if c.Progress == nil {
		return
	}
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	c.Progress(percent)
}

// ReportStatus forwards message to the status callback if one is set.
func (c Callbacks) ReportStatus(message string) {
	if c.Status != nil {
		c.Status(message)
	}
}

// Scaled returns callbacks whose progress is mapped into [from, to] of the
// parent range. Used when one operation is a sub-step of a longer one.
func (c Callbacks) Scaled(from, to int) Callbacks {
	if c.Progress == nil {
		return c
	}
	parent := c.Progress
	return Callbacks{
		Status: c.Status,
		Progress: func(percent int) {
			parent(from + (to-from)*percent/100)
		},
	}
}

// Default transcription options.
const (
	DefaultBeamSize    = 3
	DefaultTemperature = 0.0
	LanguageAuto       = "auto"
)

// Options enumerates the recognised transcription options.
type Options struct {
	// Language is an ISO 639-1 code; empty or "auto" lets the engine detect it.
	Language       string  `yaml:"language" json:"language,omitempty"`
	BeamSize       int     `yaml:"beam_size" json:"beam_size,omitempty"`
	Temperature    float32 `yaml:"temperature" json:"temperature,omitempty"`
	Prompt         string  `yaml:"prompt" json:"prompt,omitempty"`
	WordTimestamps bool    `yaml:"word_timestamps" json:"word_timestamps,omitempty"`
	Threads        int     `yaml:"threads" json:"threads,omitempty"`
}

// DefaultOptions returns the options used when the caller sets nothing.
func DefaultOptions() Options {
	return Options{
		Language:    LanguageAuto,
		BeamSize:    DefaultBeamSize,
		Temperature: DefaultTemperature,
	}
}

// WithDefaults fills zero-valued fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	if o.Language == "" {
		o.Language = LanguageAuto
	}
	if o.BeamSize <= 0 {
		o.BeamSize = DefaultBeamSize
	}
	return o
}

// AutoLanguage reports whether the engine should detect the language.
func (o Options) AutoLanguage() bool {
	return o.Language == "" || o.Language == LanguageAuto
}

// Segment is a time-aligned piece of a transcript.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Result is the output of a transcription.
type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	// Words holds word-level timings when Options.WordTimestamps was set
	// and the engine reports them separately from segments.
	Words    []Segment     `json:"words,omitempty"`
	Language string        `json:"language,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Engine   string        `json:"engine"`
	Model    string        `json:"model"`
}

// ModelInfo is a descriptive record about an engine's model.
type ModelInfo map[string]interface{}

// Common ModelInfo keys.
const (
	InfoName        = "name"
	InfoEngine      = "engine"
	InfoLoaded      = "loaded"
	InfoStatus      = "status"
	InfoDescription = "description"
)

// StatusText renders the load state the way ModelInfo reports it.
func StatusText(loaded bool) string {
	if loaded {
		return "loaded"
	}
	return "not loaded"
}
