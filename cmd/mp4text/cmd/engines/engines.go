package engines

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"mp4text/cmd/mp4text/cmd/cli"
	"mp4text/internal/app/api"
	"mp4text/internal/app/api/provider"

	// registers the engines
	_ "mp4text/internal/app"
)

// Cmd represents the engines command
var Cmd = New()

// New builds the engines command.
func New() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "engines",
		Short: "List the available transcription engines",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cli.LoadSettings(cmd)
			if err != nil {
				return err
			}

			descriptions := provider.Describe(*settings)
			out := cmd.OutOrStdout()

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"", "Engine", "Model", "Description"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetAutoWrapText(false)
			for _, d := range descriptions {
				marker := lo.Ternary(d.Name == settings.Engine, "*", "")
				if d.Error != nil {
					table.Append([]string{marker, d.Name, "-", d.Error.Error()})
					continue
				}
				table.Append([]string{marker, d.Name, fmt.Sprint(d.Info[api.InfoName]), fmt.Sprint(d.Info[api.InfoDescription])})
			}
			table.Render()

			if details {
				for _, d := range descriptions {
					if d.Error == nil {
						printInfo(out, d.Name, d.Info)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&details, "details", "d", false, "print every model info field")
	return cmd
}

func printInfo(w io.Writer, name string, info api.ModelInfo) {
	fmt.Fprintf(w, "\n%s\n", name)
	keys := lo.Keys(info)
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-18s %v\n", k+":", info[k])
	}
}
