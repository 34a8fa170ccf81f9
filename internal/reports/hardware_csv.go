package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/X-Plane/dashboard/internal/ga"
	"github.com/X-Plane/dashboard/internal/stats"
)

// Section is one block of the hardware report.
type Section struct {
	// Heading is optional; OS version blocks share the heading of the first one.
	Heading string
	Label   string
	Metric  string
	Values  stats.Series
	// Bare sections print label,value rows with no header row and no shares.
	Bare bool
}

// HardwareReport is the ordered set of hardware sections.
type HardwareReport struct {
	Absolute bool
	Sections []Section
}

// HardwareFileName names the CSV for a version, group and day.
func HardwareFileName(version ga.Version, group ga.UserGroup, now time.Time) string {
	return fmt.Sprintf("hardware_analysis_%s_%s_%d_%d_%d.csv",
		version.Name, group.Name(), now.Year(), int(now.Month()), now.Day())
}

// BuildHardwareReport queries every hardware breakdown in report order.
func BuildHardwareReport(ctx context.Context, h *stats.HardwareStats, absolute bool) (HardwareReport, error) {
	report := HardwareReport{Absolute: absolute}
	add := func(s Section) { report.Sections = append(report.Sections, s) }

	cores, err := h.CPUCores(ctx)
	if err != nil {
		return report, err
	}
	add(Section{Heading: "NUMBER OF CPU CORES", Label: "CPU Cores", Metric: "Machines", Values: cores.Sorted()})

	controls, err := h.FlightControls(ctx)
	if err != nil {
		return report, err
	}
	add(Section{Heading: "PRIMARY FLIGHT CONTROLS TYPE", Label: "Flight Controls Type", Metric: "Users", Values: controls.Types.Sorted()})
	add(Section{Heading: "PRIMARY FLIGHT CONTROLS MODEL (for non-mouse users)", Label: "Flight Controls Model", Metric: "Users", Values: controls.Models.Sorted()})
	add(Section{Heading: "USERS FLYING WITH PEDALS", Label: "Has Pedals?", Metric: "Users", Values: controls.Pedals.Sorted()})

	ram, err := h.RAMAmounts(ctx)
	if err != nil {
		return report, err
	}
	add(Section{Heading: "USERS WITH AT LEAST THIS MUCH RAM", Values: ram, Bare: true})

	gpuPlatforms, err := h.GPUPlatforms(ctx)
	if err != nil {
		return report, err
	}
	add(Section{Heading: "GPU PLATFORM", Label: "GPU Platform", Metric: "Machines", Values: gpuPlatforms})
	vendors, err := h.GPUManufacturers(ctx)
	if err != nil {
		return report, err
	}
	add(Section{Heading: "GPU MANUFACTURER", Label: "GPU Manufacturer", Metric: "Machines", Values: vendors})
	generations, err := h.GPUGenerations(ctx)
	if err != nil {
		return report, err
	}
	add(Section{Heading: "GPU GENERATION", Label: "GPU Generation", Metric: "Machines", Values: generations})

	platforms, err := h.OperatingSystems(ctx)
	if err != nil {
		return report, err
	}
	add(Section{Heading: "PLATFORM BREAKDOWN", Label: "Operating System", Metric: "Machines", Values: platforms})
	versions, err := h.OperatingSystemVersions(ctx)
	if err != nil {
		return report, err
	}
	heading := "OS VERSIONS"
	for _, p := range []struct{ platform, metric string }{
		{stats.Windows, "Windows Machines"},
		{stats.Mac, "Macs"},
		{stats.Linux, "Linux Machines"},
	} {
		add(Section{Heading: heading, Label: "OS Version", Metric: p.metric, Values: versions[p.platform].Sorted()})
		heading = ""
	}

	usage, err := h.VRUsage(ctx)
	if err != nil {
		return report, err
	}
	add(Section{Heading: "VR USAGE", Label: "VR Status", Metric: "Users", Values: usage})
	headsets, err := h.VRHeadsets(ctx)
	if err != nil {
		return report, err
	}
	add(Section{Heading: "VR HEADSETS", Label: "Headset Type", Metric: "Users", Values: headsets})
	return report, nil
}

// HardwareCSV writes the report as CSV. Every section ends with three blank lines.
func HardwareCSV(out io.Writer, r HardwareReport) error {
	w := csv.NewWriter(out)
	for _, s := range r.Sections {
		if err := writeSection(w, s, r.Absolute); err != nil {
			return fmt.Errorf("section %q: %w", s.Heading, err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		if _, err := io.WriteString(out, "\n\n\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(w *csv.Writer, s Section, absolute bool) error {
	if s.Heading != "" {
		if err := w.Write([]string{s.Heading}); err != nil {
			return err
		}
	}
	if s.Bare {
		for _, e := range s.Values {
			if err := w.Write([]string{e.Label, formatNumber(e.Value)}); err != nil {
				return err
			}
		}
		return nil
	}

	header := []string{s.Label}
	if absolute {
		header = append(header, "Num "+s.Metric)
	}
	header = append(header, "% of All "+s.Metric)
	if err := w.Write(header); err != nil {
		return err
	}

	total := s.Values.Total()
	for _, e := range s.Values.SortDescending() {
		row := []string{e.Label}
		if absolute {
			row = append(row, formatNumber(e.Value))
		}
		share := 0.0
		if total > 0 {
			share = math.Round(e.Value/total*10000) / 100
		}
		row = append(row, formatNumber(share)+"%")
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
