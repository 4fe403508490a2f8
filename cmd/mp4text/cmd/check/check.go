package check

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"mp4text/cmd/mp4text/cmd/cli"
	"mp4text/internal/app/system"
)

// Cmd represents the check command
var Cmd = &cobra.Command{
	Use:   "check",
	Short: "Check that ffmpeg and the configured engine are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := cli.LoadSettings(cmd)
		if err != nil {
			return err
		}

		report := system.NewChecker().Check(cmd.Context(), settings)

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Dependency", "Level", "Status", "Detail"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoWrapText(false)
		for _, c := range report.Checks {
			status := "ok"
			if !c.OK {
				status = "missing"
			}
			table.Append([]string{c.Name, c.Level, status, c.Detail})
		}
		table.Render()

		if !report.OK() {
			return fmt.Errorf("missing essential dependencies: %s", strings.Join(report.Missing(), ", "))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ready to convert with %s\n", settings.Engine)
		return nil
	},
}
