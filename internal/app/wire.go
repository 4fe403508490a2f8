//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"mp4text/internal/app/converter"
	"mp4text/internal/config"
)

func InitializeConverter(settings *config.Settings, logger *zap.Logger) (*converter.Converter, error) {
	wire.Build(
		converter.NewConverter,
		provideTranscriber,
		provideExtractor,
		provideTranscriptionDAO,
		provideConverterOptions,
	)
	return &converter.Converter{}, nil
}
