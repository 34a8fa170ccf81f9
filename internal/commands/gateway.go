package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/X-Plane/dashboard/internal/gateway"
	"github.com/X-Plane/dashboard/internal/output"
)

func (a *app) gatewayCommand() *cobra.Command {
	var stat string
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Print scenery gateway statistics by month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			selected := gateway.Stats
			if stat != "" {
				s, err := gateway.ParseStat(stat)
				if err != nil {
					return NewUsageError("unknown --stat", "Use one of airports, recommended3dAirports, totalUserSceneryPacks, registeredArtists.")
				}
				selected = []gateway.Stat{s}
			}

			source, err := a.gateway()
			if err != nil {
				return err
			}

			now := a.deps.Now()
			tbl := output.Table{Headers: []string{"Month"}}
			rowByMonth := map[string]int{}
			for col, s := range selected {
				tbl.Headers = append(tbl.Headers, string(s))
				series, err := source.OverTime(cmd.Context(), s, now)
				if err != nil {
					return NewServiceUnavailableError("the scenery gateway", err)
				}
				for _, mc := range series {
					i, ok := rowByMonth[mc.Month]
					if !ok {
						i = len(tbl.Rows)
						rowByMonth[mc.Month] = i
						tbl.Rows = append(tbl.Rows, make([]string, len(selected)+1))
						tbl.Rows[i][0] = mc.Month
					}
					tbl.Rows[i][col+1] = strconv.FormatInt(mc.Count, 10)
				}
			}
			return a.write(tbl)
		},
	}
	cmd.Flags().StringVar(&stat, "stat", "", "single statistic to print (default all)")
	return cmd
}
