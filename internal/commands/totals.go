package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/X-Plane/dashboard/internal/ga"
	"github.com/X-Plane/dashboard/internal/output"
)

func (a *app) totalsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Print overall users, sessions, events and crashes for a version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			queries, _, err := a.queries(ctx)
			if err != nil {
				return err
			}

			users := "n/a"
			n, ok, err := queries.TotalUsers(ctx)
			if err != nil {
				return NewServiceUnavailableError("Google Analytics", err)
			}
			if ok {
				users = strconv.FormatInt(n, 10)
			}

			tbl := output.Table{
				Headers: []string{"Version", "Metric", "Total"},
				Rows:    [][]string{{queries.Version().Name, "Users", users}},
			}
			for _, m := range []struct {
				label string
				total func(context.Context) (int64, error)
			}{
				{"Sessions", queries.TotalSessions},
				{"Events", queries.TotalEvents},
				{"Crashes", queries.TotalCrashes},
			} {
				n, err := m.total(ctx)
				if err != nil {
					return NewServiceUnavailableError("Google Analytics", err)
				}
				tbl.Rows = append(tbl.Rows, []string{queries.Version().Name, m.label, strconv.FormatInt(n, 10)})
			}
			return a.write(tbl)
		},
	}
}
