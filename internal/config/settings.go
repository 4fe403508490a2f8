package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"mp4text/internal/app/api"
)

// Settings is the persisted application configuration.
type Settings struct {
	Engine        string                `yaml:"engine" validate:"required"`
	Model         string                `yaml:"model" validate:"required"`
	Transcription TranscriptionSettings `yaml:"transcription"`
	WhisperCpp    WhisperCppSettings    `yaml:"whisper_cpp"`
	OpenAI        OpenAISettings        `yaml:"openai"`
	Audio         AudioSettings         `yaml:"audio"`
	Output        OutputSettings        `yaml:"output"`
	History       HistorySettings       `yaml:"history"`
	Log           LogSettings           `yaml:"log"`
}

// TranscriptionSettings holds the per-call decoding options.
type TranscriptionSettings struct {
	Language       string  `yaml:"language"`
	BeamSize       int     `yaml:"beam_size" validate:"min=1,max=10"`
	Temperature    float32 `yaml:"temperature" validate:"gte=0,lte=1"`
	Prompt         string  `yaml:"prompt,omitempty"`
	WordTimestamps bool    `yaml:"word_timestamps"`
	Threads        int     `yaml:"threads" validate:"gte=0,lte=64"`
}

// WhisperCppSettings configures the local whisper.cpp engine.
type WhisperCppSettings struct {
	BinaryPath string        `yaml:"binary_path"`
	ModelDir   string        `yaml:"model_dir"`
	ModelPath  string        `yaml:"model_path,omitempty"`
	TempDir    string        `yaml:"temp_dir,omitempty"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
}

// OpenAISettings configures the OpenAI Whisper API engine.
type OpenAISettings struct {
	APIKey  string        `yaml:"api_key,omitempty"`
	BaseURL string        `yaml:"base_url,omitempty" validate:"omitempty,url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// AudioSettings controls audio extraction and segmentation.
type AudioSettings struct {
	SaveAudio        bool    `yaml:"save_audio"`
	AutoSegment      bool    `yaml:"auto_segment"`
	MaxSegmentSizeGB float64 `yaml:"max_segment_size_gb" validate:"gt=0"`
	SampleRate       int     `yaml:"sample_rate" validate:"oneof=8000 16000 22050 44100 48000"`
	FFmpegPath       string  `yaml:"ffmpeg_path"`
	FFprobePath      string  `yaml:"ffprobe_path"`
}

// OutputSettings controls where transcripts are written.
type OutputSettings struct {
	Directory string `yaml:"directory" validate:"required_if=AutoSave true"`
	AutoSave  bool   `yaml:"auto_save"`
}

// HistorySettings controls the conversion history database.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path" validate:"required_if=Enabled true"`
}

// LogSettings controls the zap logger.
type LogSettings struct {
	Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Options converts the transcription settings into engine options.
func (t TranscriptionSettings) Options() api.Options {
	return api.Options{
		Language:       t.Language,
		BeamSize:       t.BeamSize,
		Temperature:    t.Temperature,
		Prompt:         t.Prompt,
		WordTimestamps: t.WordTimestamps,
		Threads:        t.Threads,
	}.WithDefaults()
}

// DefaultSettingsPath returns the per-user settings file location.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "mp4text.yaml")
	}
	return filepath.Join(dir, "mp4text", "settings.yaml")
}

// LoadSettings reads settings from configPath. A missing file yields the
// defaults. Environment overrides are applied before validation.
func LoadSettings(configPath string) (*Settings, error) {
	settings := DefaultSettings()

	if configPath != "" {
		configPath = os.ExpandEnv(configPath)
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, settings); err != nil {
				return nil, fmt.Errorf("failed to parse YAML: %w", err)
			}
		}
	}

	settings.ApplyEnv()

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// SaveSettings writes settings to configPath, creating parent directories.
// The API key is never persisted.
func SaveSettings(settings *Settings, configPath string) error {
	configPath = os.ExpandEnv(configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *settings
	out.OpenAI.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides settings from the environment.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		s.OpenAI.APIKey = v
	}
	if v := os.Getenv(EnvOpenAIBaseURL); v != "" {
		s.OpenAI.BaseURL = v
	}
	if v := os.Getenv(EnvWhisperCppBinary); v != "" {
		s.WhisperCpp.BinaryPath = v
	}
	if v := os.Getenv(EnvWhisperCppModel); v != "" {
		s.WhisperCpp.ModelPath = v
	}
}
