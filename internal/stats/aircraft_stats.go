package stats

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/ga"
)

// AircraftCount is an aircraft with its flight count.
type AircraftCount struct {
	Aircraft Aircraft `json:"aircraft"`
	Flights  int64    `json:"flights"`
}

// AircraftStats aggregates flights per aircraft.
type AircraftStats struct {
	combined   map[string]*AircraftCount
	firstParty map[string]*AircraftCount
	thirdParty map[string]*AircraftCount
}

// NewAircraftStats returns empty stats.
func NewAircraftStats() *AircraftStats {
	return &AircraftStats{
		combined:   make(map[string]*AircraftCount),
		firstParty: make(map[string]*AircraftCount),
		thirdParty: make(map[string]*AircraftCount),
	}
}

// AircraftStatsFromRows aggregates (aircraft, flights) rows. Truncated rows
// without a class and rows that fail to parse are skipped.
func AircraftStatsFromRows(rows []ga.Row, logger *zap.Logger) *AircraftStats {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := NewAircraftStats()
	skipped := 0
	for _, row := range rows {
		if len(row) < 2 || !strings.Contains(row[0], "Class:") {
			skipped++
			continue
		}
		flights, err := ga.ParseCount(row[1])
		if err != nil {
			logger.Warn("skipping aircraft row", zap.String("row", row[0]), zap.Error(err))
			continue
		}
		acf, err := ParseAircraft(row[0])
		if err != nil {
			logger.Warn("skipping aircraft row", zap.String("row", row[0]), zap.Error(err))
			continue
		}
		s.Add(acf, flights)
	}
	if skipped > 0 {
		logger.Debug("skipped truncated aircraft rows", zap.Int("count", skipped))
	}
	return s
}

// Add records flights for acf.
func (s *AircraftStats) Add(acf Aircraft, flights int64) {
	add(s.combined, acf, flights)
	if acf.IsFirstParty() {
		add(s.firstParty, acf, flights)
	} else {
		add(s.thirdParty, acf, flights)
	}
}

func add(m map[string]*AircraftCount, acf Aircraft, flights int64) {
	key := acf.Key()
	if c, ok := m[key]; ok {
		c.Flights += flights
		return
	}
	m[key] = &AircraftCount{Aircraft: acf, Flights: flights}
}

// Combined returns every aircraft, most flown first.
func (s *AircraftStats) Combined() []AircraftCount { return ranked(s.combined) }

// FirstParty returns Laminar Research aircraft, most flown first.
func (s *AircraftStats) FirstParty() []AircraftCount { return ranked(s.firstParty) }

// ThirdParty returns add-on aircraft, most flown first.
func (s *AircraftStats) ThirdParty() []AircraftCount { return ranked(s.thirdParty) }

func ranked(m map[string]*AircraftCount) []AircraftCount {
	out := make([]AircraftCount, 0, len(m))
	for _, c := range m {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Flights != out[j].Flights {
			return out[i].Flights > out[j].Flights
		}
		return out[i].Aircraft.Key() < out[j].Aircraft.Key()
	})
	return out
}

// Categories counts flights per category; multi-category aircraft count once per category.
func (s *AircraftStats) Categories() Counts {
	out := make(Counts)
	for _, c := range s.combined {
		for _, cat := range c.Aircraft.Categories {
			out.Add(string(cat), c.Flights)
		}
	}
	return out
}

func (s *AircraftStats) TotalFlights() int64      { return total(s.combined) }
func (s *AircraftStats) FirstPartyFlights() int64 { return total(s.firstParty) }
func (s *AircraftStats) ThirdPartyFlights() int64 { return total(s.thirdParty) }

func total(m map[string]*AircraftCount) int64 {
	var n int64
	for _, c := range m {
		n += c.Flights
	}
	return n
}

// TopThirdParty returns an Other bucket followed by the n most flown add-ons
// in ascending order, ready for a horizontal bar chart.
func (s *AircraftStats) TopThirdParty(n int) Series {
	return topN(s.ThirdParty(), n, Aircraft.ThirdPartyLabel)
}

// TopFirstParty is TopThirdParty for Laminar Research aircraft, labelled by name.
func (s *AircraftStats) TopFirstParty(n int) Series {
	return topN(s.FirstParty(), n, func(a Aircraft) string { return a.Name })
}

func topN(ranked []AircraftCount, n int, label func(Aircraft) string) Series {
	if n > len(ranked) {
		n = len(ranked)
	}
	var other int64
	for _, c := range ranked[n:] {
		other += c.Flights
	}

	out := Series{{Label: Other, Value: float64(other)}}
	index := map[string]int{}
	for i := n - 1; i >= 0; i-- {
		l := label(ranked[i].Aircraft)
		if at, ok := index[l]; ok {
			out[at].Value += float64(ranked[i].Flights)
			continue
		}
		index[l] = len(out)
		out = append(out, Entry{Label: l, Value: float64(ranked[i].Flights)})
	}
	return out
}
