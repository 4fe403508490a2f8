package transcribe

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"mp4text/cmd/mp4text/cmd/cli"
	"mp4text/internal/app"
	"mp4text/internal/app/api"
	"mp4text/internal/app/converter"
	"mp4text/internal/app/util/files"
)

var (
	outputFile string
	asJSON     bool
	language   string
)

func init() {
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the transcript to this file instead of stdout")
	Cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result with segments as JSON")
	Cmd.Flags().StringVar(&language, "language", "", "language code, or auto to detect")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe <audio file>",
	Short: "Transcribe an audio file directly with the configured engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, log, err := cli.Setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		if language != "" {
			settings.Transcription.Language = language
		}

		transcriber, err := app.NewTranscriber(settings, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := transcriber.Cleanup(); err != nil {
				log.Warn("cleanup failed", zap.Error(err))
			}
		}()

		ctx, stop := cli.SignalContext(cmd.Context())
		defer stop()

		progress := converter.NewProgressManager(converter.ProgressConfig{
			Enabled: converter.ShouldShowProgress(false),
		})
		status := func(msg string) { log.Debug(msg) }

		loadBar := progress.CreatePercentBar("loading " + transcriber.ModelName())
		if err := transcriber.LoadModel(ctx, loadBar.Callbacks(status)); err != nil {
			loadBar.Abort()
			progress.Wait()
			return err
		}
		loadBar.Complete()

		start := time.Now()
		bar := progress.CreatePercentBar("transcribing")
		result, err := transcriber.TranscribeAudio(ctx, args[0], bar.Callbacks(status), settings.Transcription.Options())
		if err != nil {
			bar.Abort()
			progress.Wait()
			return err
		}
		bar.Complete()
		progress.Wait()
		log.Info("transcription finished",
			zap.String("engine", api.EngineName(transcriber)),
			zap.Duration("elapsed", time.Since(start)))

		text := result.Text
		if asJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			text = string(data)
		}

		if outputFile == "" {
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}
		if err := files.WriteTextFile(outputFile, text); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "transcript saved to %s\n", outputFile)
		return nil
	},
}
