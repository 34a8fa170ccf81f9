package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/X-Plane/dashboard/internal/charts"
)

//go:embed templates/dashboard.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/dashboard.html"))

type renderPanel struct {
	ID     string
	Title  string
	Figure charts.Figure
}

type renderSection struct {
	Title  string
	Table  bool
	Panels []renderPanel
}

type pageData struct {
	Snapshot  *Snapshot
	Freshness Freshness
	Sections  []renderSection
}

// Render writes the HTML page for snap. Panels whose figure is missing are skipped.
func Render(w io.Writer, snap *Snapshot, freshness Freshness) error {
	data := pageData{Snapshot: snap, Freshness: freshness}
	for _, sec := range snap.Sections {
		rs := renderSection{Title: sec.Title, Table: sec.Table}
		for _, p := range sec.Panels {
			fig, ok := snap.Figure(p.FigureID)
			if !ok {
				continue
			}
			rs.Panels = append(rs.Panels, renderPanel{ID: p.FigureID, Title: p.Title, Figure: fig})
		}
		data.Sections = append(data.Sections, rs)
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}
