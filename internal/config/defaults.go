package config

import (
	"strings"
	"time"
)

// Engine names as registered with the provider registry.
const (
	EngineWhisperCpp = "whisper_cpp"
	EngineOpenAI     = "openai"
)

// Default configuration constants
const (
	DefaultEngine = EngineWhisperCpp
	DefaultModel  = "base"

	// Timeout defaults
	DefaultWhisperCppTimeout = 30 * time.Minute
	DefaultOpenAITimeout     = 5 * time.Minute

	// Transcription defaults
	DefaultLanguage    = "auto"
	DefaultBeamSize    = 3
	DefaultTemperature = 0.0

	// OpenAI specific
	DefaultOpenAIModel = "whisper-1"

	// Audio defaults
	DefaultMaxSegmentSizeGB = 3.0
	DefaultSampleRate       = 16000

	// Paths
	DefaultOutputDir  = "./output"
	DefaultDBPath     = "data/transcription.db"
	DefaultModelDir   = "models"
	DefaultTempPrefix = "mp4text_"

	DefaultLogLevel = "info"
)

// whisperCppModels are the ggml model names published for whisper.cpp.
var whisperCppModels = map[string]bool{
	"tiny": true, "base": true, "small": true, "medium": true,
	"large": true, "large-v1": true, "large-v2": true, "large-v3": true, "large-v3-turbo": true,
}

// IsWhisperCppModel reports whether name is a whisper.cpp model name such
// as "base", "small.en" or "large-v3-q5_0".
func IsWhisperCppModel(name string) bool {
	name = strings.TrimSuffix(name, ".en")
	if i := strings.Index(name, "-q"); i > 0 {
		name = name[:i]
	}
	return whisperCppModels[name]
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() *Settings {
	return &Settings{
		Engine: DefaultEngine,
		Model:  DefaultModel,
		Transcription: TranscriptionSettings{
			Language:    DefaultLanguage,
			BeamSize:    DefaultBeamSize,
			Temperature: DefaultTemperature,
		},
		WhisperCpp: WhisperCppSettings{
			BinaryPath: "whisper-cli",
			ModelDir:   DefaultModelDir,
			Timeout:    DefaultWhisperCppTimeout,
		},
		OpenAI: OpenAISettings{
			Model:   DefaultOpenAIModel,
			Timeout: DefaultOpenAITimeout,
		},
		Audio: AudioSettings{
			AutoSegment:      true,
			MaxSegmentSizeGB: DefaultMaxSegmentSizeGB,
			SampleRate:       DefaultSampleRate,
			FFmpegPath:       "ffmpeg",
			FFprobePath:      "ffprobe",
		},
		Output: OutputSettings{
			Directory: DefaultOutputDir,
			AutoSave:  true,
		},
		History: HistorySettings{
			Enabled: true,
			DBPath:  DefaultDBPath,
		},
		Log: LogSettings{
			Level: DefaultLogLevel,
		},
	}
}
