package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/ga"
)

// VR usage labels.
const (
	UsedVR      = "Have Used VR"
	MonitorOnly = "2-D Monitor Only"

	unknownVendorCutoff = 0.3
	vrHeadsetSmush      = 1
)

// DimensionQuerier runs a fixed metric over a single dimension.
// ga.SimpleQueries satisfies it.
type DimensionQuerier interface {
	Query(ctx context.Context, dim ga.CustomDimension, start string) ([]ga.Row, error)
}

var ramBuckets = []int{2, 4, 8, 16, 32}

// headsetAliases is checked in order; the first substring match wins.
var headsetAliases = []struct{ match, name string }{
	{"rift", "Oculus Rift"},
	{"oculus", "Oculus Rift"},
	{"pimax 5k", "Pimax 5K"},
	{"psvr", "PSVR Headset"},
	{"windows", "Windows Mixed Reality"},
	{"lighthouse", "OpenVR (like HTC Vive)"},
	{"vive", "OpenVR (like HTC Vive)"},
	{"aapvr", "Phone"},
	{"vridge", "Phone"},
	{"ivry", "Phone"},
	{"phonevr", "Phone"},
}

// CanonicalHeadset dedupes a VR headset dimension value.
func CanonicalHeadset(label string) (string, bool) {
	lower := strings.ToLower(label)
	for _, alias := range headsetAliases {
		if strings.Contains(lower, alias.match) {
			return alias.name, true
		}
	}
	return label, false
}

// HardwareStats computes hardware breakdowns from user counts.
type HardwareStats struct {
	q      DimensionQuerier
	logger *zap.Logger
}

// NewHardwareStats wraps q, which should query the users metric.
func NewHardwareStats(q DimensionQuerier, logger *zap.Logger) *HardwareStats {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HardwareStats{q: q, logger: logger}
}

func (h *HardwareStats) count(ctx context.Context, dim ga.CustomDimension, start string, classify func(string) string) (Counts, error) {
	rows, err := h.q.Query(ctx, dim, start)
	if err != nil {
		return nil, err
	}
	out := Counts{}
	for _, row := range rows {
		n, ok := rowCount(row)
		if !ok {
			h.logger.Debug("skipping malformed row", zap.Stringer("dimension", dim), zap.Strings("row", row))
			continue
		}
		out.Add(classify(row[0]), n)
	}
	return out, nil
}

// OperatingSystems is the platform share in percent.
func (h *HardwareStats) OperatingSystems(ctx context.Context) (Series, error) {
	counts, err := h.count(ctx, ga.Os, "", ClassifyPlatform)
	if err != nil {
		return nil, fmt.Errorf("operating systems: %w", err)
	}
	return CountsToPercents(counts.Sorted(), 0, 0), nil
}

// OperatingSystemVersions counts users per OS version, keyed by platform.
func (h *HardwareStats) OperatingSystemVersions(ctx context.Context) (map[string]Counts, error) {
	rows, err := h.q.Query(ctx, ga.Os, "")
	if err != nil {
		return nil, fmt.Errorf("operating system versions: %w", err)
	}
	out := map[string]Counts{}
	for _, row := range rows {
		n, ok := rowCount(row)
		if !ok {
			continue
		}
		version := OSVersion(row[0])
		if version == "" {
			continue
		}
		platform := ClassifyPlatform(row[0])
		if out[platform] == nil {
			out[platform] = Counts{}
		}
		out[platform].Add(version, n)
	}
	return out, nil
}

// RAMAmounts is the share of users with at least each bucket of RAM.
func (h *HardwareStats) RAMAmounts(ctx context.Context) (Series, error) {
	rows, err := h.q.Query(ctx, ga.Ram, "")
	if err != nil {
		return nil, fmt.Errorf("ram amounts: %w", err)
	}
	atLeast := make([]int64, len(ramBuckets))
	var total int64
	for _, row := range rows {
		n, ok := rowCount(row)
		if !ok {
			continue
		}
		total += n
		gb, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			h.logger.Debug("unparseable ram amount", zap.String("value", row[0]))
			continue
		}
		for i, bucket := range ramBuckets {
			if gb >= bucket {
				atLeast[i] += n
			}
		}
	}

	series := make(Series, 0, len(ramBuckets))
	for i, bucket := range ramBuckets {
		if atLeast[i] > 0 {
			series = append(series, Entry{Label: fmt.Sprintf("%dGB", bucket), Value: float64(atLeast[i])})
		}
	}
	return CountsToPercents(series, float64(total), 0), nil
}

// GPUManufacturers is the vendor share; Unknown is dropped when negligible.
func (h *HardwareStats) GPUManufacturers(ctx context.Context) (Series, error) {
	counts, err := h.count(ctx, ga.Gpu, "", GPUManufacturer)
	if err != nil {
		return nil, fmt.Errorf("gpu manufacturers: %w", err)
	}
	out := CountsToPercents(counts.Sorted(), 0, 0)
	if v, ok := out.Get(UnknownVendor); ok && v < unknownVendorCutoff {
		out = out.Without(UnknownVendor)
	}
	return out, nil
}

func (h *HardwareStats) GPUGenerations(ctx context.Context) (Series, error) {
	counts, err := h.count(ctx, ga.Gpu, "", GPUGeneration)
	if err != nil {
		return nil, fmt.Errorf("gpu generations: %w", err)
	}
	return CountsToPercents(counts.Sorted(), 0, 0), nil
}

func (h *HardwareStats) GPUPlatforms(ctx context.Context) (Series, error) {
	counts, err := h.count(ctx, ga.Gpu, "", GPUPlatform)
	if err != nil {
		return nil, fmt.Errorf("gpu platforms: %w", err)
	}
	return CountsToPercents(counts.Sorted(), 0, 0), nil
}

// VRHeadsets is the share of VR users per headset family; families under 1% become Other.
func (h *HardwareStats) VRHeadsets(ctx context.Context) (Series, error) {
	counts, err := h.count(ctx, ga.VrHeadset, "", func(label string) string {
		name, known := CanonicalHeadset(label)
		if !known {
			h.logger.Debug("unknown headset", zap.String("label", label))
		}
		return name
	})
	if err != nil {
		return nil, fmt.Errorf("vr headsets: %w", err)
	}
	return CountsToPercents(counts.Sorted(), 0, vrHeadsetSmush), nil
}

// VRUsage is the share of users who have flown in VR since VR support shipped in 11.20r4.
func (h *HardwareStats) VRUsage(ctx context.Context) (Series, error) {
	start := ga.V1120r4.Start
	users, err := h.sum(ctx, ga.Ram, start)
	if err != nil {
		return nil, fmt.Errorf("vr usage: %w", err)
	}
	vrUsers, err := h.sum(ctx, ga.VrHeadset, start)
	if err != nil {
		return nil, fmt.Errorf("vr usage: %w", err)
	}
	if users == 0 {
		return Series{}, nil
	}
	pct := round(float64(vrUsers)/float64(users)*100, 2)
	return Series{
		{Label: UsedVR, Value: pct},
		{Label: MonitorOnly, Value: round(100-pct, 2)},
	}, nil
}

// TotalUsers sums users across RAM buckets, the one dimension every client reports.
func (h *HardwareStats) TotalUsers(ctx context.Context) (int64, error) {
	return h.sum(ctx, ga.Ram, "")
}

func (h *HardwareStats) sum(ctx context.Context, dim ga.CustomDimension, start string) (int64, error) {
	counts, err := h.count(ctx, dim, start, func(string) string { return "" })
	if err != nil {
		return 0, err
	}
	return counts.Total(), nil
}

// CPUCores counts users per core count.
func (h *HardwareStats) CPUCores(ctx context.Context) (Counts, error) {
	rows, err := h.q.Query(ctx, ga.Cpu, "")
	if err != nil {
		return nil, fmt.Errorf("cpu cores: %w", err)
	}
	return CPUCores(rows), nil
}

// FlightControls summarises flight control hardware.
func (h *HardwareStats) FlightControls(ctx context.Context) (FlightControls, error) {
	rows, err := h.q.Query(ctx, ga.FlightControls, "")
	if err != nil {
		return FlightControls{}, fmt.Errorf("flight controls: %w", err)
	}
	return FlightControlsFromRows(rows), nil
}
