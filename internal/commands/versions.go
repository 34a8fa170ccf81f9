package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/X-Plane/dashboard/internal/ga"
	"github.com/X-Plane/dashboard/internal/output"
)

func (a *app) versionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "Print the release catalogue and its data retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := a.deps.Now()
			tbl := output.Table{Headers: []string{"Version", "Final", "Start", "End", "Full Data Retention"}}
			for _, v := range ga.Versions() {
				tbl.Rows = append(tbl.Rows, []string{
					v.Name,
					strconv.FormatBool(v.Final),
					v.Start,
					v.EndDate(now).Format("2006-01-02"),
					strconv.FormatBool(v.HasFullDataRetention(now)),
				})
			}
			return a.write(tbl)
		},
	}
}
