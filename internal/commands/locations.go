package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/X-Plane/dashboard/internal/ga"
	"github.com/X-Plane/dashboard/internal/output"
	"github.com/X-Plane/dashboard/internal/stats"
)

func (a *app) locationsCommand() *cobra.Command {
	var (
		limit int
		start string
	)
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "Print the most popular starting locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if limit == 0 {
				limit = cfg.LocationsLimit
			}
			if limit < 0 {
				return NewUsageError("--limit must be positive", "")
			}
			if start == "" {
				start = cfg.LocationsStartDate
			}
			if _, err := time.Parse("2006-01-02", start); err != nil {
				return NewUsageError("--start must be YYYY-MM-DD", err.Error())
			}

			queries, _, err := a.queries(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := queries.Query(cmd.Context(), ga.Events, []ga.CustomDimension{ga.Region}, "", start)
			if err != nil {
				return NewServiceUnavailableError("Google Analytics", err)
			}

			tbl := output.Table{Headers: []string{"Rank", "Location", "% Flights"}}
			for _, loc := range stats.StartingLocations(rows, limit) {
				tbl.Rows = append(tbl.Rows, []string{strconv.Itoa(loc.Rank), loc.Region, loc.ShareString()})
			}
			return a.write(tbl)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of locations to print (default LOCATIONS_LIMIT)")
	cmd.Flags().StringVar(&start, "start", "", "first day to count, YYYY-MM-DD (default LOCATIONS_START_DATE)")
	return cmd
}
