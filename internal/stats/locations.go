package stats

import (
	"fmt"

	"github.com/X-Plane/dashboard/internal/ga"
)

// regionPlaceholder is reported when the simulator could not resolve a region.
const regionPlaceholder = "<REGION>"

// Location is one row of the starting locations table.
type Location struct {
	Rank   int     `json:"rank"`
	Region string  `json:"region"`
	Share  float64 `json:"share"` // percent of all flights
}

// ShareString formats the share with four decimals.
func (l Location) ShareString() string {
	return fmt.Sprintf("%.4f%%", l.Share)
}

// StartingLocations ranks regions by flights. The placeholder region is
// excluded from the ranking but still counts towards the total.
func StartingLocations(rows []ga.Row, limit int) []Location {
	type regionCount struct {
		region string
		n      int64
	}
	counts := make([]regionCount, 0, len(rows))
	var total int64
	for _, row := range rows {
		n, ok := rowCount(row)
		if !ok {
			continue
		}
		total += n
		counts = append(counts, regionCount{region: row[0], n: n})
	}
	if total == 0 {
		return []Location{}
	}

	out := make([]Location, 0, min(limit, len(counts)))
	for _, c := range counts {
		if len(out) >= limit {
			break
		}
		if c.region == regionPlaceholder {
			continue
		}
		out = append(out, Location{
			Rank:   len(out) + 1,
			Region: c.region,
			Share:  float64(c.n) / float64(total) * 100,
		})
	}
	return out
}
