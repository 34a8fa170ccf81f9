package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/X-Plane/dashboard/internal/ga"
)

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Hubschrauber")
	require.NoError(t, err)
	assert.Equal(t, Helicopter, c)

	c, err = ParseCategory(" Airliner ")
	require.NoError(t, err)
	assert.Equal(t, Airliner, c)

	c, err = ParseCategory("グライダー")
	require.NoError(t, err)
	assert.Equal(t, Glider, c)

	_, err = ParseCategory("Spaceship")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestParseAircraft(t *testing.T) {
	tests := []struct {
		in   string
		want Aircraft
	}{
		{
			in:   "Cessna 172SP - Class: General Aviation - Studio: Laminar Research - Engines: 1",
			want: Aircraft{Name: "Cessna Skyhawk", Categories: []Category{GeneralAviation}, Engines: 1, Studio: LaminarResearch},
		},
		{
			in:   "Baron B58 - Class: General Aviation - Engines: 2",
			want: Aircraft{Name: "Baron B58", Categories: []Category{GeneralAviation}, Engines: 2, Studio: LaminarResearch},
		},
		{
			in:   "Marines Sea Harrier - Class: VTOL - Engines: 1",
			want: Aircraft{Name: "AV-8B Harrier II", Categories: []Category{Military, VTOL}, Engines: 1, Studio: LaminarResearch},
		},
		{
			in:   "A320neo - Class: Airliner - Studio: JARDESIGN (C) - Engines: 2",
			want: Aircraft{Name: "A320", Categories: []Category{Airliner}, Engines: 2, Studio: "JARDesign"},
		},
		{
			in:   "Boeing 737-800X - Class: Airliner - Studio: Zibo - Engines: 2",
			want: Aircraft{Name: "Boeing 737-800X", Categories: []Category{Airliner}, Engines: 2, Studio: zibo},
		},
		{
			in:   "Carenado C208B Grand Caravan for X-Plane 11 - Class: General Aviation - Studio: Carenado - Engines: 1",
			want: Aircraft{Name: "C208B Grand Caravan", Categories: []Category{GeneralAviation}, Engines: 1, Studio: "Carenado"},
		},
		{
			in:   "FlightFactor Boeing 757-200 - Class: Airliner - Engines: 2",
			want: Aircraft{Name: "Boeing 757", Categories: []Category{Airliner}, Engines: 2, Studio: "Flight Factor"},
		},
		{
			in:   "Twin Beech - Class: General Aviation - Studio: Other",
			want: Aircraft{Name: "Twin Beech", Categories: []Category{GeneralAviation}, Engines: 2, Studio: "Other"},
		},
		{
			in:   "Mystery - Class: Glider",
			want: Aircraft{Name: "Mystery", Categories: []Category{Glider}, Engines: UnknownEngines, Studio: "Other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAircraft(tt.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseAircraft() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseAircraftErrors(t *testing.T) {
	_, err := ParseAircraft("X - Class: Glider - Engines: two")
	assert.Error(t, err)

	_, err = ParseAircraft("X - Class: Spaceship - Engines: 1")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestAircraftLabels(t *testing.T) {
	zibo737 := Aircraft{Name: "Boeing 737-800X", Studio: zibo}
	assert.Equal(t, "Zibo & Twkster Boeing 737-800X", zibo737.ThirdPartyLabel())
	assert.False(t, zibo737.IsFirstParty())

	ff := Aircraft{Name: "Boeing 757", Studio: "Flight Factor and StepToSky"}
	assert.Equal(t, "Flight Factor & StepToSky Boeing 757", ff.ThirdPartyLabel())

	multi := Aircraft{Name: "C208B", Categories: []Category{GeneralAviation, Seaplane}}
	assert.Equal(t, "General Aviation, Seaplane", multi.CategoryList())
}

func testAircraftRows() []ga.Row {
	return []ga.Row{
		{"Boeing 737-800X - Class: Airliner - Studio: Zibo - Engines: 2", "300"},
		{"Cessna 172SP - Class: General Aviation - Studio: Laminar Research - Engines: 1", "100"},
		{"Cessna 172SP G1000 - Class: General Aviation - Studio: Laminar Research - Engines: 1", "50"},
		{"C208B - Class: General Aviation/Seaplane - Studio: Carenado - Engines: 1", "40"},
		{"Truncated name without a cla", "999"},
		{"X - Class: Spaceship - Engines: 1", "5"},
	}
}

func TestAircraftStatsFromRows(t *testing.T) {
	s := AircraftStatsFromRows(testAircraftRows(), zaptest.NewLogger(t))

	assert.Equal(t, int64(490), s.TotalFlights())
	assert.Equal(t, int64(150), s.FirstPartyFlights())
	assert.Equal(t, int64(340), s.ThirdPartyFlights())

	first := s.FirstParty()
	require.Len(t, first, 1)
	assert.Equal(t, "Cessna Skyhawk", first[0].Aircraft.Name)
	assert.Equal(t, int64(150), first[0].Flights)

	combined := s.Combined()
	require.Len(t, combined, 3)
	assert.Equal(t, "Boeing 737-800X", combined[0].Aircraft.Name)

	want := Counts{"General Aviation": 190, "Airliner": 300, "Seaplane": 40}
	if diff := cmp.Diff(want, s.Categories()); diff != "" {
		t.Errorf("Categories() mismatch (-want +got):\n%s", diff)
	}
}

func TestTopAircraft(t *testing.T) {
	s := AircraftStatsFromRows(testAircraftRows(), nil)

	tests := []struct {
		name string
		got  Series
		want Series
	}{
		{
			name: "third party top one",
			got:  s.TopThirdParty(1),
			want: Series{{Other, 40}, {"Zibo & Twkster Boeing 737-800X", 300}},
		},
		{
			name: "third party ascending",
			got:  s.TopThirdParty(10),
			want: Series{{Other, 0}, {"Carenado C208B", 40}, {"Zibo & Twkster Boeing 737-800X", 300}},
		},
		{
			name: "first party by name",
			got:  s.TopFirstParty(10),
			want: Series{{Other, 0}, {"Cessna Skyhawk", 150}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
