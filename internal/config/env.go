package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables recognised by the application.
const (
	EnvOpenAIKey        = "OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
	EnvWhisperCppBinary = "WHISPER_CPP_BINARY"
	EnvWhisperCppModel  = "WHISPER_CPP_MODEL"
	EnvConfigPath       = "MP4TEXT_CONFIG"
)

// LoadEnv loads environment variables from the first .env file found.
// A missing file is not an error; variables may be set system-wide.
// It returns the path that was loaded, if any.
func LoadEnv() (string, error) {
	envPaths := []string{
		".env",
		".env.local",
	}
	if dir, err := os.UserConfigDir(); err == nil {
		envPaths = append(envPaths, filepath.Join(dir, "mp4text", ".env"))
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return "", fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return envPath, nil
		}
	}

	return "", nil
}

// InitializeConfig loads the environment and the settings file.
// This is the main entry point for configuration loading.
func InitializeConfig(configPath string) (*Settings, error) {
	if _, err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if configPath == "" {
		configPath = DefaultSettingsPath()
	}

	return LoadSettings(configPath)
}
