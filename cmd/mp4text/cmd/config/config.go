package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"mp4text/cmd/mp4text/cmd/cli"
	appconfig "mp4text/internal/config"
)

// Cmd represents the config command
var Cmd = New()

// New builds the config command tree.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the settings file",
	}
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newPathCmd())
	return cmd
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := settingsPath(cmd)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := appconfig.SaveSettings(appconfig.DefaultSettings(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "settings written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing settings file")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cli.LoadSettings(cmd)
			if err != nil {
				return err
			}
			shown := *settings
			if shown.OpenAI.APIKey != "" {
				shown.OpenAI.APIKey = "***"
			}
			data, err := yaml.Marshal(&shown)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), settingsPath(cmd))
			return nil
		},
	}
}

func settingsPath(cmd *cobra.Command) string {
	if path := cli.ConfigPath(cmd); path != "" {
		return path
	}
	if path := os.Getenv(appconfig.EnvConfigPath); path != "" {
		return path
	}
	return appconfig.DefaultSettingsPath()
}
