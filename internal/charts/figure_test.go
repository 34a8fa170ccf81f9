package charts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/X-Plane/dashboard/internal/stats"
)

func TestBarSortsAndLabels(t *testing.T) {
	fig := Bar(stats.Series{{Label: "8GB", Value: 45}, {Label: "2GB", Value: 95}}, BarOptions{
		XLabel: "RAM",
		Label:  func(s string) string { return s + "+" },
	})

	require.Len(t, fig.Data, 1)
	trace := fig.Data[0]
	assert.Equal(t, "bar", trace.Type)
	assert.Equal(t, "v", trace.Orientation)
	assert.Equal(t, []any{"2GB+", "8GB+"}, trace.X)
	assert.Equal(t, []any{95.0, 45.0}, trace.Y)
	assert.Equal(t, []string{"95.0%", "45.0%"}, trace.Text)

	assert.False(t, fig.Layout.ShowLegend)
	assert.Equal(t, "RAM", fig.Layout.XAxis.Title.Text)
	assert.Equal(t, "% Users", fig.Layout.YAxis.Title.Text)
	assert.Equal(t, 16, fig.Layout.XAxis.TickFont.Size)
	assert.Equal(t, 14, fig.Layout.YAxis.TickFont.Size)
	assert.True(t, fig.Layout.XAxis.AutoMargin)
	assert.Equal(t, &Margin{}, fig.Layout.Margin)
}

func TestHorizontalBarSwapsAxes(t *testing.T) {
	fig := Bar(stats.Series{{Label: stats.Other, Value: 1}, {Label: "A", Value: 3}}, BarOptions{
		YLabel:            "% Flights",
		Horizontal:        true,
		AlreadySorted:     true,
		ConvertToPercents: true,
	})

	trace := fig.Data[0]
	assert.Equal(t, "h", trace.Orientation)
	assert.Equal(t, []any{25.0, 75.0}, trace.X)
	assert.Equal(t, []any{stats.Other, "A"}, trace.Y)
	assert.Equal(t, "% Flights", fig.Layout.XAxis.Title.Text)
	assert.Nil(t, fig.Layout.YAxis.Title)
}

func TestAbsoluteBar(t *testing.T) {
	fig := AbsoluteBar(stats.Series{{Label: "2019-01", Value: 10}, {Label: "2019-02", Value: 12}}, BarOptions{
		YLabel: "Number of Artists",
		Color:  "#1f77b4",
	})
	trace := fig.Data[0]
	assert.Empty(t, trace.Text)
	assert.Equal(t, "#1f77b4", trace.Marker.Color)
	assert.Equal(t, []any{"2019-01", "2019-02"}, trace.X)
}

func TestPie(t *testing.T) {
	fig := Pie(stats.Series{{Label: "Have Used VR", Value: 2.06}, {Label: "2-D Monitor Only", Value: 97.94}}, 40)
	trace := fig.Data[0]
	assert.Equal(t, "pie", trace.Type)
	assert.Equal(t, trace.Labels, trace.Text)
	assert.Equal(t, 18, trace.TextFont.Size)
	assert.Equal(t, 40, fig.Layout.Margin.T)
}

func TestFirstVsThirdPartyPie(t *testing.T) {
	fig := FirstVsThirdPartyPie(25, 75, true)
	assert.Equal(t, []float64{0.25, 0.75}, fig.Data[0].Values)
	assert.Equal(t, "label+percent", fig.Data[0].TextInfo)
	assert.Equal(t, "First- vs. Third-Party Aircraft Usage", fig.Layout.Title.Text)

	empty := FirstVsThirdPartyPie(0, 0, false)
	assert.Equal(t, []float64{0, 0}, empty.Data[0].Values)
	assert.Nil(t, empty.Layout.Title)
}

func TestFigureJSON(t *testing.T) {
	fig := Bar(stats.Series{{Label: "Windows", Value: 80}}, BarOptions{Title: "OS"})
	raw, err := json.Marshal(fig)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	layout := decoded["layout"].(map[string]any)
	assert.Equal(t, false, layout["showlegend"])
	assert.Equal(t, map[string]any{"text": "OS"}, layout["title"])
	assert.Equal(t, map[string]any{"t": 0.0, "b": 0.0, "pad": 0.0}, layout["margin"])
}
