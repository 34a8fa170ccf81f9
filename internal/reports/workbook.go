package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/X-Plane/dashboard/internal/stats"
)

const (
	sheetName     = "Sheet1"
	percentFormat = "#.00%"
)

var columnWidths = []float64{30, 7, 20, 20, 10}

// WorkbookOptions configures the aircraft workbook.
type WorkbookOptions struct {
	// Absolute adds a "Num Flights" column.
	Absolute bool
}

// AircraftFileName is the workbook name for the month containing now.
func AircraftFileName(now time.Time) string {
	return fmt.Sprintf("aircraft_analysis - %04d-%02d.xlsx", now.Year(), int(now.Month()))
}

type workbookWriter struct {
	f       *excelize.File
	row     int
	bold    int
	percent int
	opts    WorkbookOptions
}

// AircraftWorkbook renders category and aircraft rankings into a spreadsheet.
func AircraftWorkbook(s *stats.AircraftStats, opts WorkbookOptions) (*excelize.File, error) {
	f := excelize.NewFile()
	w := &workbookWriter{f: f, opts: opts}

	var err error
	if w.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return nil, fmt.Errorf("bold style: %w", err)
	}
	numFmt := percentFormat
	if w.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt}); err != nil {
		return nil, fmt.Errorf("percent style: %w", err)
	}
	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	total := s.TotalFlights()
	sections := []struct {
		heading  string
		aircraft []stats.AircraftCount
	}{
		{"FIRST PARTY PLANES (BY POPULARITY)", s.FirstParty()},
		{"THIRD PARTY PLANES (BY POPULARITY)", s.ThirdParty()},
		{"ALL PLANES (BY POPULARITY)", s.Combined()},
	}

	if err := w.categories(s.Categories(), total); err != nil {
		return nil, err
	}
	for _, sec := range sections {
		if err := w.aircraft(sec.heading, sec.aircraft, total); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteAircraftWorkbook renders the workbook to out.
func WriteAircraftWorkbook(out io.Writer, s *stats.AircraftStats, opts WorkbookOptions) error {
	f, err := AircraftWorkbook(s, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (w *workbookWriter) categories(counts stats.Counts, total int64) error {
	if err := w.heading("AIRCRAFT CATEGORIES (BY POPULARITY)", len(counts) > 0, "Category", "", "", ""); err != nil {
		return err
	}
	for _, e := range counts.Sorted() {
		if err := w.values(int64(e.Value), total, e.Label, "", "", ""); err != nil {
			return err
		}
	}
	w.row++
	return nil
}

func (w *workbookWriter) aircraft(heading string, ranked []stats.AircraftCount, total int64) error {
	if err := w.heading(heading, len(ranked) > 0, "Aircraft", "Engines", "Classification", "Studio"); err != nil {
		return err
	}
	for _, c := range ranked {
		var engines any = c.Aircraft.Engines
		if c.Aircraft.Engines == stats.UnknownEngines {
			engines = ""
		}
		if err := w.values(c.Flights, total, c.Aircraft.Name, engines, c.Aircraft.CategoryList(), c.Aircraft.Studio); err != nil {
			return err
		}
	}
	w.row++
	return nil
}

// heading writes the bold section title and, for non-empty sections, the column headings.
func (w *workbookWriter) heading(title string, withColumns bool, columns ...any) error {
	if err := w.output([]any{title}, w.bold); err != nil {
		return err
	}
	if !withColumns {
		w.row++
		return nil
	}
	columns = append(columns, "% Flights")
	if w.opts.Absolute {
		columns = append(columns, "Num Flights")
	}
	return w.output(columns, w.bold)
}

func (w *workbookWriter) values(count, total int64, cols ...any) error {
	share := 0.0
	if total > 0 {
		share = float64(count) / float64(total)
	}
	cols = append(cols, share)
	if w.opts.Absolute {
		cols = append(cols, count)
	}
	if err := w.output(cols, 0); err != nil {
		return err
	}
	cell, _ := excelize.CoordinatesToCellName(5, w.row)
	return w.f.SetCellStyle(sheetName, cell, cell, w.percent)
}

func (w *workbookWriter) output(cols []any, style int) error {
	for i, v := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row+1)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
		if style != 0 {
			if err := w.f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return fmt.Errorf("style %s: %w", cell, err)
			}
		}
	}
	w.row++
	return nil
}
