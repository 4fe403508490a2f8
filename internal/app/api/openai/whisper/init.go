package whisper

import (
	"go.uber.org/zap"
	"mp4text/internal/app/api"
	"mp4text/internal/app/api/provider"
	"mp4text/internal/config"
)

func init() {
	provider.Register(config.EngineOpenAI, createOpenAITranscriber)
}

// createOpenAITranscriber uses the openai section's model unless the
// top-level model names an API model.
func createOpenAITranscriber(settings config.Settings, logger *zap.Logger) (api.Transcriber, error) {
	model := settings.OpenAI.Model
	if settings.Engine == config.EngineOpenAI && settings.Model != "" && !config.IsWhisperCppModel(settings.Model) {
		model = settings.Model
	}
	return New(model, Config{
		APIKey:  settings.OpenAI.APIKey,
		BaseURL: settings.OpenAI.BaseURL,
		Timeout: settings.OpenAI.Timeout,
	}, logger), nil
}
