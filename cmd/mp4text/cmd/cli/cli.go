// Package cli holds the state shared by all subcommands: persistent flags,
// settings loading and logger construction.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"mp4text/internal/app/logger"
	"mp4text/internal/config"
)

// Flag names shared by every subcommand.
const (
	FlagConfig  = "config"
	FlagVerbose = "verbose"
	FlagEngine  = "engine"
	FlagModel   = "model"
)

// BindFlags registers the persistent flags on root.
func BindFlags(root *cobra.Command) {
	root.PersistentFlags().String(FlagConfig, "", "settings file (default is $XDG_CONFIG_HOME/mp4text/settings.yaml)")
	root.PersistentFlags().BoolP(FlagVerbose, "V", false, "verbose output")
	root.PersistentFlags().StringP(FlagEngine, "e", "", "override the configured engine (whisper_cpp, openai)")
	root.PersistentFlags().StringP(FlagModel, "m", "", "override the configured model")
}

// ConfigPath returns the --config flag value.
func ConfigPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString(FlagConfig)
	return path
}

// LoadSettings loads settings and applies the engine and model flags.
func LoadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.InitializeConfig(ConfigPath(cmd))
	if err != nil {
		return nil, err
	}

	if engine, _ := cmd.Flags().GetString(FlagEngine); engine != "" {
		settings.Engine = engine
	}
	if model, _ := cmd.Flags().GetString(FlagModel); model != "" {
		settings.Model = model
	}
	if verbose, _ := cmd.Flags().GetBool(FlagVerbose); verbose {
		settings.Log.Level = "debug"
		settings.Log.Development = true
	}
	return settings, nil
}

// NewLogger builds the logger described by settings.
func NewLogger(settings *config.Settings) (*zap.Logger, error) {
	return logger.New(settings.Log.Level, settings.Log.Development)
}

// Setup loads settings and builds the logger in one step.
func Setup(cmd *cobra.Command) (*config.Settings, *zap.Logger, error) {
	settings, err := LoadSettings(cmd)
	if err != nil {
		return nil, nil, err
	}
	log, err := NewLogger(settings)
	if err != nil {
		return nil, nil, err
	}
	return settings, log, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
