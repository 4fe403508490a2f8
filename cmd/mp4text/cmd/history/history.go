package history

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"mp4text/cmd/mp4text/cmd/cli"
	"mp4text/internal/app"
	"mp4text/internal/app/converter/export"
	"mp4text/internal/app/model"
)

// Cmd represents the history command
var Cmd = New()

// New builds the history command and its subcommands.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and export the conversion history",
	}
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newExportCmd())
	return cmd
}

func newListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the most recent conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			transcriptions, err := load(cmd, limit)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "File", "Engine", "Duration", "Status", "When"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, t := range transcriptions {
				status := "ok"
				if t.HasError {
					status = "error: " + t.ErrorMessage
				}
				table.Append([]string{
					fmt.Sprint(t.ID),
					t.FileName,
					t.Engine + "/" + t.Model,
					fmt.Sprintf("%.1fs", t.AudioDuration),
					status,
					humanize.Time(t.CreatedAt),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func newExportCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export the conversion history to an Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcriptions, err := load(cmd, limit)
			if err != nil {
				return err
			}

			out := args[0]
			if filepath.Ext(out) == "" {
				out += ".xlsx"
			}
			if err := export.ToExcel(transcriptions, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", len(transcriptions), out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries to export (0 exports all)")
	return cmd
}

func load(cmd *cobra.Command, limit int) ([]model.Transcription, error) {
	settings, err := cli.LoadSettings(cmd)
	if err != nil {
		return nil, err
	}
	db, err := app.OpenHistory(settings)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.List(limit)
}
