package convert

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"mp4text/cmd/mp4text/cmd/cli"
	"mp4text/internal/app"
	"mp4text/internal/app/converter"
	"mp4text/internal/app/model"
	"mp4text/internal/app/util/files"
)

var (
	limit      int
	outputDir  string
	saveAudio  bool
	noSegment  bool
	language   string
	forceBars  bool
	noProgress bool
)

func init() {
	Cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of videos to convert from a directory (0 converts all)")
	Cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory transcripts are written to")
	Cmd.Flags().BoolVar(&saveAudio, "save-audio", false, "keep the extracted audio next to the transcript")
	Cmd.Flags().BoolVar(&noSegment, "no-segment", false, "never split large files into segments")
	Cmd.Flags().StringVar(&language, "language", "", "language code, or auto to detect")
	Cmd.Flags().BoolVar(&forceBars, "progress", false, "show progress bars even when output is not a terminal")
	Cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")
}

// Cmd represents the convert command
var Cmd = &cobra.Command{
	Use:   "convert <video file or directory>...",
	Short: "Convert video files, or every video in a directory, to text",
	Long: `Convert video files, or every video in a directory, to text

- Directories are processed oldest file first
- Files already converted successfully are skipped
- A failing file does not stop the batch`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, log, err := cli.Setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		if outputDir != "" {
			settings.Output.Directory = outputDir
		}
		if saveAudio {
			settings.Audio.SaveAudio = true
		}
		if noSegment {
			settings.Audio.AutoSegment = false
		}
		if language != "" {
			settings.Transcription.Language = language
		}

		conv, err := app.InitializeConverter(settings, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := conv.Close(); err != nil {
				log.Warn("failed to release resources", zap.Error(err))
			}
		}()

		ctx, stop := cli.SignalContext(cmd.Context())
		defer stop()

		progress := converter.NewProgressManager(converter.ProgressConfig{
			Enabled: !noProgress && converter.ShouldShowProgress(forceBars),
		})

		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("cannot access %s: %w", path, err)
			}

			if info.IsDir() {
				result, err := conv.ConvertDir(ctx, path, limit, progress)
				if result != nil {
					printBatch(out, result)
					failed += len(result.Failed)
				}
				if err != nil {
					return err
				}
				continue
			}

			details := files.GetFileInfo(path)
			printDetails(out, details)
			if !details.Readable {
				fmt.Fprintf(out, "failed: %s: file is not readable\n", path)
				failed++
				continue
			}

			bar := progress.CreatePercentBar(info.Name())
			outcome, err := conv.ConvertFile(ctx, path, bar.Callbacks(nil))
			if err != nil {
				bar.Abort()
				progress.Wait()
				fmt.Fprintf(out, "failed: %s: %v\n", path, err)
				failed++
				if ctx.Err() != nil {
					return err
				}
				continue
			}
			bar.Complete()
			progress.Wait()
			printOutcome(out, outcome)
		}

		if failed > 0 {
			return fmt.Errorf("%d file(s) failed", failed)
		}
		return nil
	},
}

func printDetails(w io.Writer, d model.FileDetails) {
	fmt.Fprintf(w, "file: %s (%s, %s)\n", d.Name, d.SizeStr, lo.Ternary(d.Extension == "", "no extension", d.Extension))
}

func printOutcome(w io.Writer, o *converter.Outcome) {
	fmt.Fprintf(w, "converted: %s (%s, %s/%s)\n", o.VideoPath, o.Duration.Round(time.Second), o.Engine, o.Model)
	if o.Segments > 1 {
		fmt.Fprintf(w, "  segments: %d, skipped: %d\n", o.Segments, o.SkippedSegments)
	}
	if o.OutputPath != "" {
		fmt.Fprintf(w, "  transcript: %s (%s)\n", o.OutputPath, humanize.Bytes(uint64(len(o.Text))))
	} else {
		fmt.Fprintln(w, o.Text)
	}
	for _, p := range o.AudioPaths {
		fmt.Fprintf(w, "  audio: %s\n", p)
	}
}

func printBatch(w io.Writer, r *converter.BatchResult) {
	for _, o := range r.Converted {
		printOutcome(w, o)
	}
	for _, name := range r.Skipped {
		fmt.Fprintf(w, "skipped: %s (already converted)\n", name)
	}
	names := lo.Keys(r.Failed)
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "failed: %s: %v\n", name, r.Failed[name])
	}
	fmt.Fprintf(w, "%d converted, %d skipped, %d failed\n", len(r.Converted), len(r.Skipped), len(r.Failed))
}
