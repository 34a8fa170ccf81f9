// Package stats turns raw reporting rows into the aggregates the dashboard and
// reports display: aircraft rankings, hardware breakdowns and starting
// locations. Classification rules live next to the aggregate that uses them.
package stats

import (
	"math"
	"sort"
)

// Other is the label of the bucket that collects small entries.
const Other = "Other"

// Entry is one labelled value, either a raw count or a percentage.
type Entry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is an ordered list of entries.
type Series []Entry

// Labels returns the labels in order.
func (s Series) Labels() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.Label
	}
	return out
}

// Values returns the values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, e := range s {
		out[i] = e.Value
	}
	return out
}

// Total sums the values.
func (s Series) Total() float64 {
	var total float64
	for _, e := range s {
		total += e.Value
	}
	return total
}

// Get returns the value for label.
func (s Series) Get(label string) (float64, bool) {
	for _, e := range s {
		if e.Label == label {
			return e.Value, true
		}
	}
	return 0, false
}

// Without returns a copy of s minus label.
func (s Series) Without(label string) Series {
	out := make(Series, 0, len(s))
	for _, e := range s {
		if e.Label != label {
			out = append(out, e)
		}
	}
	return out
}

// SortDescending orders a copy by value, largest first, ties by label.
func (s Series) SortDescending() Series {
	out := append(Series(nil), s...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Counts accumulates integer totals per label.
type Counts map[string]int64

// Add increments label by n.
func (c Counts) Add(label string, n int64) { c[label] += n }

// Total sums every count.
func (c Counts) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// Sorted returns the counts largest first, ties by label.
func (c Counts) Sorted() Series {
	out := make(Series, 0, len(c))
	for label, n := range c {
		out = append(out, Entry{Label: label, Value: float64(n)})
	}
	return out.SortDescending()
}

// CountsToPercents converts an ordered series of counts to percentages of
// overrideTotal (or of the series sum when overrideTotal is not positive).
// Entries under smushBelow percent are folded into a trailing Other entry.
// Shares under 2% keep two decimals, larger ones one.
func CountsToPercents(series Series, overrideTotal float64, smushBelow float64) Series {
	total := overrideTotal
	if total <= 0 {
		total = series.Total()
	}
	out := make(Series, 0, len(series)+1)
	if total == 0 {
		return out
	}

	var other float64
	for _, e := range series {
		percent := e.Value / total * 100
		if percent >= smushBelow {
			places := 1
			if percent < 2 {
				places = 2
			}
			out = append(out, Entry{Label: e.Label, Value: round(percent, places)})
		} else {
			other += percent
		}
	}
	if other > 0 {
		for i := range out {
			if out[i].Label == Other {
				out[i].Value = round(out[i].Value+other, 2)
				return out
			}
		}
		out = append(out, Entry{Label: Other, Value: round(other, 2)})
	}
	return out
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
