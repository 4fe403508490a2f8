package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"mp4text/cmd/mp4text/cmd/check"
	"mp4text/cmd/mp4text/cmd/cli"
	"mp4text/cmd/mp4text/cmd/config"
	"mp4text/cmd/mp4text/cmd/convert"
	"mp4text/cmd/mp4text/cmd/engines"
	"mp4text/cmd/mp4text/cmd/history"
	"mp4text/cmd/mp4text/cmd/transcribe"
	"mp4text/cmd/mp4text/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mp4text",
	Short: "Convert video files to text with whisper.cpp or the OpenAI Whisper API",
	Long: `Convert video files to text with whisper.cpp or the OpenAI Whisper API.

- Extract the audio track with ffmpeg
- Split very large files into time segments
- Transcribe with the configured engine and save the transcript
- Conversions are recorded to a local sqlite history`,
	SilenceUsage:     true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(check.Cmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(convert.Cmd)
	rootCmd.AddCommand(engines.Cmd)
	rootCmd.AddCommand(history.Cmd)
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(version.Cmd)

	cli.BindFlags(rootCmd)
}
