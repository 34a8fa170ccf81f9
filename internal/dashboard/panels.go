package dashboard

import (
	"time"

	"github.com/X-Plane/dashboard/internal/charts"
	"github.com/X-Plane/dashboard/internal/gateway"
	"github.com/X-Plane/dashboard/internal/stats"
)

const (
	categorySmush  = 2
	vrUsageTopPad  = 40
	gatewayBarBlue = "#1f77b4"

	// Aircraft bar charts show this many planes plus an Other bar.
	defaultTopN = 9

	defaultBuildTimeout = 5 * time.Minute
)

// Section titles.
const (
	SectionAircraft  = "Aircraft"
	SectionLocations = "Top Starting Locations"
	SectionOS        = "Operating Systems"
	SectionHardware  = "Hardware"
	SectionGateway   = "Scenery Gateway"
)

func aircraftSection() Section {
	return Section{Title: SectionAircraft, Panels: []Panel{
		{FigureID: FigureCategories, Title: "Flights by Aircraft Category"},
		{FigureID: FigureFirstVsThirdParty, Title: "First- vs. Third-Party Aircraft Usage"},
		{FigureID: FigureThirdPartyPlanes, Title: "Top Third-Party Aircraft"},
		{FigureID: FigureFirstPartyPlanes, Title: "Top First-Party Aircraft"},
	}}
}

func hardwareSection() Section {
	return Section{Title: SectionHardware, Panels: []Panel{
		{FigureID: FigureRAMAmounts, Title: "RAM"},
		{FigureID: FigureGPUManufacturer, Title: "Graphics Card Manufacturer"},
		{FigureID: FigureVRHeadsets, Title: "VR Headsets in Use"},
		{FigureID: FigureVRUsage, Title: "% Users Who Have Flown in VR"},
	}}
}

// gatewayPanels lists the gateway charts in page order.
var gatewayPanels = []struct {
	stat   gateway.Stat
	id     string
	title  string
	yLabel string
}{
	{gateway.Airports, FigureGatewayAirports, "Airports with 2-D or 3-D Scenery", "Number of Airports (2-D or 3-D)"},
	{gateway.Airports3D, FigureGatewayAirports3D, "Airports with 3-D Scenery", "Number of 3-D Airports"},
	{gateway.Submissions, FigureGatewaySubmissions, "Total Scenery Pack Submissions", "Number of Scenery Submissions"},
	{gateway.Artists, FigureGatewayArtists, "Registered Scenery Artists", "Number of Artists"},
}

func gatewaySection() Section {
	s := Section{Title: SectionGateway}
	for _, p := range gatewayPanels {
		s.Panels = append(s.Panels, Panel{FigureID: p.id, Title: p.title})
	}
	return s
}

func aircraftFigures(a *stats.AircraftStats, topN int) map[string]charts.Figure {
	categories := stats.CountsToPercents(a.Categories().Sorted(), float64(a.TotalFlights()), categorySmush)
	return map[string]charts.Figure{
		FigureCategories: charts.Bar(categories, charts.BarOptions{
			YLabel:        "% Flights",
			AlreadySorted: true,
		}),
		FigureFirstVsThirdParty: charts.FirstVsThirdPartyPie(a.FirstPartyFlights(), a.ThirdPartyFlights(), false),
		FigureThirdPartyPlanes: charts.Bar(a.TopThirdParty(topN), charts.BarOptions{
			YLabel:            "% Third-Party Aircraft Flights",
			YTickSize:         16,
			Horizontal:        true,
			ConvertToPercents: true,
			AlreadySorted:     true,
		}),
		FigureFirstPartyPlanes: charts.Bar(a.TopFirstParty(topN), charts.BarOptions{
			YLabel:            "% First-Party Aircraft Flights",
			Horizontal:        true,
			ConvertToPercents: true,
			AlreadySorted:     true,
		}),
	}
}

func ramFigure(ram stats.Series) charts.Figure {
	return charts.Bar(ram, charts.BarOptions{
		XLabel: "Users with at Least <em>x</em> GB RAM",
		Label:  func(l string) string { return l + "+" },
	})
}

func gpuManufacturerFigure(vendors stats.Series) charts.Figure {
	return charts.Bar(vendors, charts.BarOptions{XLabel: "GPU Manufacturers"})
}

func vrHeadsetsFigure(headsets stats.Series) charts.Figure {
	return charts.Bar(headsets, charts.BarOptions{
		XLabel:        "VR Headsets",
		YLabel:        "% VR Users",
		AlreadySorted: true,
	})
}

func gatewayFigure(points []gateway.MonthCount, yLabel string) charts.Figure {
	series := make(stats.Series, len(points))
	for i, p := range points {
		series[i] = stats.Entry{Label: p.Month, Value: float64(p.Count)}
	}
	return charts.AbsoluteBar(series, charts.BarOptions{YLabel: yLabel, Color: gatewayBarBlue})
}
