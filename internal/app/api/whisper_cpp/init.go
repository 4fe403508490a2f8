package whisper_cpp

import (
	"go.uber.org/zap"
	"mp4text/internal/app/api"
	"mp4text/internal/app/api/provider"
	"mp4text/internal/app/audio"
	"mp4text/internal/config"
)

func init() {
	provider.Register(config.EngineWhisperCpp, createWhisperCppTranscriber)
}

func createWhisperCppTranscriber(settings config.Settings, logger *zap.Logger) (api.Transcriber, error) {
	t := New(settings.Model, ConfigFromSettings(settings), logger)
	t.SetPrepareFunc(audio.NewFFmpegFromSettings(settings.Audio, logger).PrepareWhisperWav)
	return t, nil
}

// ConfigFromSettings maps application settings onto the engine config.
func ConfigFromSettings(settings config.Settings) Config {
	language := settings.Transcription.Language
	if language == api.LanguageAuto {
		language = ""
	}
	return Config{
		BinaryPath: settings.WhisperCpp.BinaryPath,
		ModelPath:  settings.WhisperCpp.ModelPath,
		ModelDir:   settings.WhisperCpp.ModelDir,
		Language:   language,
		Prompt:     settings.Transcription.Prompt,
		Threads:    settings.Transcription.Threads,
		TempDir:    settings.WhisperCpp.TempDir,
		Timeout:    settings.WhisperCpp.Timeout,
	}
}
