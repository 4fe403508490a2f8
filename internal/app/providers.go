package app

import (
	"go.uber.org/zap"
	"mp4text/internal/app/api"
	"mp4text/internal/app/api/provider"
	"mp4text/internal/app/audio"
	"mp4text/internal/app/converter"
	"mp4text/internal/app/repository"
	"mp4text/internal/app/repository/sqlite"
	"mp4text/internal/config"

	// engines register themselves with the provider registry
	_ "mp4text/internal/app/api/openai/whisper"
	_ "mp4text/internal/app/api/whisper_cpp"
)

// provideTranscriber builds the configured engine from the registry.
func provideTranscriber(settings *config.Settings, logger *zap.Logger) (api.Transcriber, error) {
	return provider.New(settings.Engine, *settings, logger)
}

func provideExtractor(settings *config.Settings, logger *zap.Logger) audio.Extractor {
	return audio.NewFFmpegFromSettings(settings.Audio, logger)
}

// provideTranscriptionDAO opens the history database, or returns nil when
// history is disabled.
func provideTranscriptionDAO(settings *config.Settings) (repository.TranscriptionDAO, error) {
	if !settings.History.Enabled {
		return nil, nil
	}
	db, err := sqlite.Open(settings.History.DBPath)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func provideConverterOptions(settings *config.Settings) converter.Options {
	return converter.OptionsFromSettings(settings)
}

// OpenHistory opens the history database regardless of the enabled flag.
func OpenHistory(settings *config.Settings) (repository.TranscriptionDAO, error) {
	return sqlite.Open(settings.History.DBPath)
}

// NewTranscriber builds the configured engine without a converter around it.
func NewTranscriber(settings *config.Settings, logger *zap.Logger) (api.Transcriber, error) {
	return provideTranscriber(settings, logger)
}
