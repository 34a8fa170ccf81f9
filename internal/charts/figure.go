// Package charts builds plotly.js figure JSON for the dashboard.
package charts

import (
	"fmt"

	"github.com/X-Plane/dashboard/internal/stats"
)

const (
	defaultYLabel    = "% Users"
	defaultXTickSize = 16
	defaultYTickSize = 14
	pieFontSize      = 18
)

// Figure is a plotly.js figure: traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is a single bar or pie trace.
type Trace struct {
	Type         string    `json:"type"`
	X            []any     `json:"x,omitempty"`
	Y            []any     `json:"y,omitempty"`
	Labels       []string  `json:"labels,omitempty"`
	Values       []float64 `json:"values,omitempty"`
	Text         []string  `json:"text,omitempty"`
	TextPosition string    `json:"textposition,omitempty"`
	TextInfo     string    `json:"textinfo,omitempty"`
	TextFont     *Font     `json:"textfont,omitempty"`
	Orientation  string    `json:"orientation,omitempty"`
	Marker       *Marker   `json:"marker,omitempty"`
}

type Font struct {
	Size int `json:"size"`
}

type Marker struct {
	Color string `json:"color,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

type Axis struct {
	TickFont   Font   `json:"tickfont"`
	Title      *Title `json:"title,omitempty"`
	AutoMargin bool   `json:"automargin"`
}

type Margin struct {
	T   int `json:"t"`
	B   int `json:"b"`
	Pad int `json:"pad"`
}

// Layout mirrors the subset of plotly layout attributes the dashboard sets.
type Layout struct {
	ShowLegend bool    `json:"showlegend"`
	Title      *Title  `json:"title,omitempty"`
	XAxis      *Axis   `json:"xaxis,omitempty"`
	YAxis      *Axis   `json:"yaxis,omitempty"`
	Margin     *Margin `json:"margin,omitempty"`
}

// BarOptions configures Bar and AbsoluteBar.
type BarOptions struct {
	XLabel string
	// YLabel defaults to "% Users".
	YLabel     string
	XTickSize  int
	YTickSize  int
	Horizontal bool
	// ConvertToPercents treats the series as counts.
	ConvertToPercents bool
	// AlreadySorted keeps the series order instead of sorting by value.
	AlreadySorted bool
	Title         string
	// Label maps a category label to its axis label.
	Label func(string) string
	// Color is the bar colour for AbsoluteBar.
	Color string
}

func (o BarOptions) withDefaults() BarOptions {
	if o.YLabel == "" {
		o.YLabel = defaultYLabel
	}
	if o.XTickSize == 0 {
		o.XTickSize = defaultXTickSize
	}
	if o.YTickSize == 0 {
		o.YTickSize = defaultYTickSize
	}
	if o.Label == nil {
		o.Label = func(s string) string { return s }
	}
	return o
}

// Bar draws percentages with "12.3%" labels on each bar.
func Bar(series stats.Series, opts BarOptions) Figure {
	opts = opts.withDefaults()
	data := series
	if !opts.AlreadySorted {
		data = data.SortDescending()
	}
	if opts.ConvertToPercents {
		data = stats.CountsToPercents(data, 0, 0)
	}

	text := make([]string, len(data))
	for i, e := range data {
		text[i] = fmt.Sprintf("%0.1f%%", e.Value)
	}
	trace := barTrace(data, opts)
	trace.Text = text
	return Figure{Data: []Trace{trace}, Layout: barLayout(opts)}
}

// AbsoluteBar draws raw values in the given order without labels.
func AbsoluteBar(series stats.Series, opts BarOptions) Figure {
	opts = opts.withDefaults()
	trace := barTrace(series, opts)
	trace.Marker = &Marker{Color: opts.Color}
	return Figure{Data: []Trace{trace}, Layout: barLayout(opts)}
}

func barTrace(series stats.Series, opts BarOptions) Trace {
	labels := make([]any, len(series))
	values := make([]any, len(series))
	for i, e := range series {
		labels[i] = opts.Label(e.Label)
		values[i] = e.Value
	}
	t := Trace{Type: "bar", X: labels, Y: values, TextPosition: "auto", Orientation: "v"}
	if opts.Horizontal {
		t.X, t.Y = values, labels
		t.Orientation = "h"
	}
	return t
}

func barLayout(opts BarOptions) Layout {
	xTitle, yTitle := opts.XLabel, opts.YLabel
	if opts.Horizontal {
		xTitle, yTitle = yTitle, xTitle
	}
	return Layout{
		ShowLegend: false,
		Title:      title(opts.Title),
		XAxis:      &Axis{TickFont: Font{Size: opts.XTickSize}, Title: title(xTitle), AutoMargin: true},
		YAxis:      &Axis{TickFont: Font{Size: opts.YTickSize}, Title: title(yTitle), AutoMargin: true},
		Margin:     &Margin{},
	}
}

// Pie draws a pie with labels on the slices.
func Pie(series stats.Series, topPadPx int) Figure {
	labels := series.Labels()
	return Figure{
		Data: []Trace{{
			Type:     "pie",
			Labels:   labels,
			Text:     labels,
			TextFont: &Font{Size: pieFontSize},
			Values:   series.Values(),
		}},
		Layout: Layout{ShowLegend: false, Margin: &Margin{T: topPadPx}},
	}
}

// FirstVsThirdPartyPie compares Laminar Research flights with add-on flights.
func FirstVsThirdPartyPie(firstParty, thirdParty int64, withTitle bool) Figure {
	total := float64(firstParty + thirdParty)
	values := []float64{0, 0}
	if total > 0 {
		values = []float64{float64(firstParty) / total, float64(thirdParty) / total}
	}
	fig := Figure{
		Data: []Trace{{
			Type:     "pie",
			Labels:   []string{stats.LaminarResearch, "Third Party"},
			Values:   values,
			TextInfo: "label+percent",
		}},
		Layout: Layout{ShowLegend: false},
	}
	if withTitle {
		fig.Layout.Title = title("First- vs. Third-Party Aircraft Usage")
	}
	return fig
}

func title(text string) *Title {
	if text == "" {
		return nil
	}
	return &Title{Text: text}
}
